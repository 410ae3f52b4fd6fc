package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type SchedulePublishedMailData struct {
	EmployeeName string `json:"employeeName"`
	TargetMonth  string `json:"targetMonth"`
	WorkDays     []string `json:"workDays"`
}
