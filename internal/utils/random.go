package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var letters = []rune("abcdefghijklmnopqrstuvwxyz")
var digits = "0123456789"

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// GenerateRandomEmployee 生成一个随机员工。八成是正式雇佣，
// 可胜任工种是给定工种中的一个随机非空子集
func GenerateRandomEmployee(emailDomainName string, jobTypeIDs []int64) *domain.Employee {
	employmentType := domain.EmploymentFullTime
	if rand.Intn(10) < 2 {
		employmentType = domain.EmploymentDependent
	}

	shuffled := make([]int64, len(jobTypeIDs))
	copy(shuffled, jobTypeIDs)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	n := rand.Intn(len(shuffled)) + 1

	return &domain.Employee{
		Name:           GenerateRandomChineseName(),
		Email:          GenerateRandomID(6, 3) + "@" + emailDomainName,
		EmploymentType: employmentType,
		JobTypeIDs:     shuffled[:n],
	}
}

// GenerateRandomShiftRequest 生成某员工对某月份的随机出勤意向
func GenerateRandomShiftRequest(employeeID int64, month time.Time) *domain.ShiftRequest {
	sr := &domain.ShiftRequest{
		EmployeeID:  employeeID,
		TargetMonth: month.Format("2006-01"),
	}

	switch rand.Intn(3) {
	case 0:
		requested := domain.RequestedWorkDaysMax
		sr.RequestedWorkDays = &requested
	case 1:
		requested := fmt.Sprintf("%d", rand.Intn(15)+5)
		sr.RequestedWorkDays = &requested
	}

	periods := []domain.DayOffPeriod{domain.PeriodAM, domain.PeriodPM, domain.PeriodAllDay}
	dates := MonthDates(month)
	used := make(map[int]bool)
	offCount := rand.Intn(4)
	for i := 0; i < offCount; i++ {
		idx := rand.Intn(len(dates))
		if used[idx] {
			continue
		}
		used[idx] = true
		sr.DaysOff = append(sr.DaysOff, domain.DayOff{
			Date:   dates[idx],
			Period: periods[rand.Intn(len(periods))],
		})
	}

	return sr
}
