package services

import (
	"github.com/jmoiron/sqlx"

	"github.com/curaious/projecthub/internal/boardsync"
	"github.com/curaious/projecthub/internal/config"
	"github.com/curaious/projecthub/internal/mailer"
	dashboard2 "github.com/curaious/projecthub/internal/services/dashboard"
	notification2 "github.com/curaious/projecthub/internal/services/notification"
	payment2 "github.com/curaious/projecthub/internal/services/payment"
	project2 "github.com/curaious/projecthub/internal/services/project"
	task2 "github.com/curaious/projecthub/internal/services/task"
	user2 "github.com/curaious/projecthub/internal/services/user"
)

type Services struct {
	User         *user2.UserService
	Project      *project2.ProjectService
	Task         *task2.TaskService
	Payment      *payment2.PaymentService
	Notification *notification2.NotificationService
	Dashboard    *dashboard2.DashboardService
	Dispatcher   *notification2.Dispatcher
	Boards       boardsync.Service

	// Conn backs the debug table counts.
	Conn *sqlx.DB
}

func NewServices(conf *config.Config, dbconn *sqlx.DB, boards boardsync.Service, m mailer.Mailer) *Services {
	userRepo := user2.NewUserRepo(dbconn)
	projectRepo := project2.NewProjectRepo(dbconn)
	notificationRepo := notification2.NewNotificationRepo(dbconn)

	dispatcher := notification2.NewDispatcher(notificationRepo, userRepo, m)
	projectSvc := project2.NewProjectService(projectRepo, userRepo, boards, dispatcher)
	taskSvc := task2.NewTaskService(task2.NewTaskRepo(dbconn), projectRepo, userRepo, boards, dispatcher, conf.TASK_MUTATION_REQUIRES_PROJECT_MEMBERSHIP)

	return &Services{
		User:         user2.NewUserService(userRepo),
		Project:      projectSvc,
		Task:         taskSvc,
		Payment:      payment2.NewPaymentService(payment2.NewPaymentRepo(dbconn), projectRepo, dispatcher),
		Notification: notification2.NewNotificationService(notificationRepo),
		Dashboard:    dashboard2.NewDashboardService(projectSvc, taskSvc),
		Dispatcher:   dispatcher,
		Boards:       boards,
		Conn:         dbconn,
	}
}
