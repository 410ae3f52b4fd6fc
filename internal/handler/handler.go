package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/atelier-ops/shift-scheduler/backend/internal/config"
	"github.com/atelier-ops/shift-scheduler/backend/internal/modification"
	"github.com/atelier-ops/shift-scheduler/backend/internal/nlp"
	"github.com/atelier-ops/shift-scheduler/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client
	nlpClient   *nlp.Client
	modEngine   *modification.Engine

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client, nlpClient *nlp.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,
		nlpClient:   nlpClient,
		modEngine:   modification.NewEngine(cfg.Modification.DefaultAmount, cfg.Scheduler.DependentMaxDays),

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/employees", func(r chi.Router) {
		r.Post("/", h.CreateEmployee)
		r.Get("/", h.GetAllEmployees)
		r.Put("/order", h.ReorderEmployees)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.employee)
			r.Get("/", h.GetEmployee)
			r.Patch("/", h.UpdateEmployee)
			r.Delete("/", h.DeleteEmployee)
			r.Put("/job-types", h.UpdateEmployeeJobTypes)
		})
	})

	h.Mux.Get("/job-types", h.GetAllJobTypes)
	h.Mux.Get("/holidays", h.GetHolidays)

	h.Mux.Route("/requests", func(r chi.Router) {
		r.Post("/", h.UpsertShiftRequest)
		r.Get("/", h.GetShiftRequests)
		r.Get("/status", h.GetRequestStatus)
	})

	h.Mux.Route("/requirements", func(r chi.Router) {
		r.Get("/", h.GetRequirements)
		r.Post("/", h.UpsertRequirements)
		r.Post("/template", h.ApplyRequirementsTemplate)
	})

	h.Mux.Route("/schedules", func(r chi.Router) {
		r.Get("/", h.GetSchedules)
		r.Post("/generate", h.GenerateSchedule)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.schedule)
			r.Get("/assignments", h.GetAssignments)
			r.Put("/assignments", h.ApplyManualOverrides)
			r.Put("/status", h.TransitionScheduleStatus)
			r.Post("/modifications", h.ProposeModification)
			r.Get("/modifications", h.GetModificationLogs)
		})
	})

	h.Mux.Route("/modification-logs/{id}", func(r chi.Router) {
		r.Use(h.modificationLog)
		r.Put("/approve", h.ApproveModification)
		r.Put("/reject", h.RejectModification)
	})

	h.Mux.Get("/reports", h.GetReport)

	h.Mux.Route("/export", func(r chi.Router) {
		r.Get("/csv", h.ExportCSV)
		r.Get("/excel", h.ExportExcel)
		r.Get("/pdf", h.ExportPDF)
	})
}
