package handler

type ContextKey string

var (
	EmployeeCtx        ContextKey = "employee"
	ScheduleCtx        ContextKey = "schedule"
	ModificationLogCtx ContextKey = "modificationLog"
)
