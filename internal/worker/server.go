package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/oosca/comeals-backend/internal/repository"
	"github.com/oosca/comeals-backend/internal/service"
	"github.com/oosca/comeals-backend/internal/tasks"
)

// WorkerServer wraps the asynq server with the task handlers for the
// audit log, template generation and the reconciliation sweep.
type WorkerServer struct {
	server *asynq.Server
	log    *logrus.Entry

	auditRepo       repository.AuditRepository
	scheduleService *service.ScheduleService
	sweepHandler    *ReconciliationSweepHandler
}

// NewWorkerServer creates a WorkerServer consuming from the given Redis
// connection.
func NewWorkerServer(
	redisOpt asynq.RedisClientOpt,
	auditRepo repository.AuditRepository,
	scheduleService *service.ScheduleService,
	sweepHandler *ReconciliationSweepHandler,
	logger *logrus.Logger,
) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID := ""
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	return &WorkerServer{
		server:          server,
		log:             logEntry,
		auditRepo:       auditRepo,
		scheduleService: scheduleService,
		sweepHandler:    sweepHandler,
	}
}

// Start runs the worker server. It should be called in its own
// goroutine; it blocks until Shutdown.
func (ws *WorkerServer) Start() {
	mux := asynq.NewServeMux()

	auditHandler := NewMealAuditHandler(ws.auditRepo)
	mux.HandleFunc(tasks.TypeMealAudit, auditHandler.ProcessTask)

	templatesHandler := NewMealTemplatesHandler(ws.scheduleService)
	mux.HandleFunc(tasks.TypeMealTemplates, templatesHandler.ProcessTask)

	mux.HandleFunc(tasks.TypeReconciliationSweep, ws.sweepHandler.ProcessTask)

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		if !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		} else {
			ws.log.Info("Worker server stopped.")
		}
	}
}

// Shutdown stops the worker server gracefully.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
