package techsheet

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tallerapp/vehicle-maintenance/internal/models"
	"github.com/tallerapp/vehicle-maintenance/internal/normalize"
)

// ReminderSummary holds the human-readable alert labels for one vehicle.
type ReminderSummary struct {
	Expired  []string `json:"expired"`
	Expiring []string `json:"expiring"`
}

// BuildReminderSummary turns expiring-reminder projections into two
// deduplicated, alphabetically sorted label lists. Each label combines the
// service name with a remaining/overdue magnitude, kilometers preferred over
// days when both dimensions are present.
func BuildReminderSummary(items []ExpiringRecord) ReminderSummary {
	expired := make([]string, 0)
	expiring := make([]string, 0)

	for _, r := range items {
		status := summaryStatus(r)

		serviceName := "Servicio"
		if r.Service != nil {
			serviceName = normalize.ServiceName(r.Service.Name)
		}

		label := serviceName
		if detail := detailOf(r, status); detail != "" {
			label = serviceName + " • " + detail
		}

		switch status {
		case string(models.ReminderOverdue):
			expired = append(expired, label)
		case string(models.ReminderDueSoon):
			expiring = append(expiring, label)
		}
	}

	return ReminderSummary{
		Expired:  uniqueSorted(expired),
		Expiring: uniqueSorted(expiring),
	}
}

// summaryStatus picks the projection's leading status: the mileage dimension
// when present, the months dimension otherwise.
func summaryStatus(r ExpiringRecord) string {
	if r.Mileage != nil && r.Mileage.Status != "" {
		return r.Mileage.Status
	}
	if r.Months != nil {
		return r.Months.Status
	}
	return ""
}

func detailOf(r ExpiringRecord, status string) string {
	switch status {
	case string(models.ReminderOverdue):
		if r.Mileage != nil && r.Mileage.KmOverdue != nil && *r.Mileage.KmOverdue > 0 {
			return FormatKm(*r.Mileage.KmOverdue) + " km vencidos"
		}
		if r.Months != nil && r.Months.DaysOverdue != nil && *r.Months.DaysOverdue > 0 {
			return fmt.Sprintf("%d días vencidos", *r.Months.DaysOverdue)
		}
	case string(models.ReminderDueSoon):
		if r.Mileage != nil && r.Mileage.KmRemaining != nil {
			km := *r.Mileage.KmRemaining
			if km < 0 {
				km = 0
			}
			return "faltan " + FormatKm(km) + " km"
		}
		if r.Months != nil && r.Months.DaysRemaining != nil {
			days := *r.Months.DaysRemaining
			if days < 0 {
				days = 0
			}
			return fmt.Sprintf("faltan %d días", days)
		}
	}
	return ""
}

// FormatKm renders a kilometer magnitude with dot thousands grouping, the way
// the rest of the UI shows distances (1500 -> "1.500").
func FormatKm(km float64) string {
	s := strconv.FormatInt(int64(km), 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "." + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

func uniqueSorted(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
