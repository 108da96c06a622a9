package services

import (
	"time"

	"github.com/shopspring/decimal"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// Analytics periods and report types.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"

	ReportRevenue = "revenue"
	ReportOrders  = "orders"
)

// AnalyticsService aggregates order data for the admin dashboard.
type AnalyticsService struct {
	orderRepo repositories.OrderRepository
	now       func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(orderRepo repositories.OrderRepository) *AnalyticsService {
	return &AnalyticsService{
		orderRepo: orderRepo,
		now:       time.Now,
	}
}

// Bucket is one time slot of a report. Daily buckets are keyed
// "2006-01-02", monthly buckets "2006-01".
type Bucket struct {
	Key     string          `json:"key"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// Report is a time-bucketed aggregation over orders. Cancelled orders count
// toward order volume but are excluded from revenue and commission.
type Report struct {
	Period          string          `json:"period"`
	Type            string          `json:"type"`
	Buckets         []Bucket        `json:"buckets"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalOrders     int64           `json:"total_orders"`
}

// BuildReport aggregates orders of the requested period. week and month use
// daily buckets, year uses monthly buckets.
func (s *AnalyticsService) BuildReport(period, reportType string) (*Report, error) {
	if reportType == "" {
		reportType = ReportRevenue
	}
	if reportType != ReportRevenue && reportType != ReportOrders {
		return nil, apperrors.Validation("type", "type must be revenue or orders")
	}

	now := s.now()
	var since time.Time
	var monthly bool
	switch period {
	case PeriodWeek:
		since = now.AddDate(0, 0, -6)
	case PeriodMonth:
		since = now.AddDate(0, 0, -29)
	case PeriodYear:
		// Anchor to the first of the month so AddDate normalization on
		// month-end days cannot shrink the window to 11 buckets.
		since = time.Date(now.Year(), now.Month()-11, 1, 0, 0, 0, 0, now.Location())
		monthly = true
	default:
		return nil, apperrors.Validation("period", "period must be week, month or year")
	}
	since = startOfBucket(since, monthly)

	orders, err := s.orderRepo.ListCreatedSince(since)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Period:          period,
		Type:            reportType,
		TotalRevenue:    decimal.Zero,
		TotalCommission: decimal.Zero,
	}

	byKey := make(map[string]*Bucket)
	for _, order := range orders {
		key := bucketKey(order.CreatedAt, monthly)
		bucket, ok := byKey[key]
		if !ok {
			bucket = &Bucket{Key: key, Revenue: decimal.Zero}
			byKey[key] = bucket
		}
		bucket.Orders++
		report.TotalOrders++
		if order.Status != models.OrderStatusCancelled {
			bucket.Revenue = bucket.Revenue.Add(order.Total)
			report.TotalRevenue = report.TotalRevenue.Add(order.Total)
			report.TotalCommission = report.TotalCommission.Add(order.Commission)
		}
	}

	// Emit every bucket of the window, including empty ones, oldest first.
	for cursor := since; !cursor.After(now); cursor = nextBucket(cursor, monthly) {
		key := bucketKey(cursor, monthly)
		if bucket, ok := byKey[key]; ok {
			report.Buckets = append(report.Buckets, *bucket)
		} else {
			report.Buckets = append(report.Buckets, Bucket{Key: key, Revenue: decimal.Zero})
		}
	}
	return report, nil
}

func startOfBucket(t time.Time, monthly bool) time.Time {
	if monthly {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func nextBucket(t time.Time, monthly bool) time.Time {
	if monthly {
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

func bucketKey(t time.Time, monthly bool) string {
	if monthly {
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}
