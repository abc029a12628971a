package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/export"
)

const reportCacheKey = ReportCachePrefix + "summary"

type reportRepository interface {
	SubjectsByCareer(ctx context.Context) ([]dto.CareerCount, error)
	StudentCreditLoads(ctx context.Context) ([]int, error)
	AvailableSlots(ctx context.Context) ([]int, error)
}

// ReportService aggregates catalogue statistics and renders exports.
type ReportService struct {
	repo      reportRepository
	cache     *CacheService
	renderers map[dto.ExportFormat]export.Renderer
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a ReportService with CSV and PDF renderers.
func NewReportService(repo reportRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ReportService{
		repo:  repo,
		cache: cache,
		renderers: map[dto.ExportFormat]export.Renderer{
			dto.ExportCSV: export.NewCSVExporter(),
			dto.ExportPDF: export.NewPDFExporter(),
		},
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Summary returns the report and whether it was served from cache.
func (s *ReportService) Summary(ctx context.Context) (*dto.ReportResponse, bool, error) {
	var cached dto.ReportResponse
	if hit, err := s.cache.Get(ctx, reportCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	report, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, reportCacheKey, report, s.ttl)
	return report, false, nil
}

// Export renders the current report in the requested format.
func (s *ReportService) Export(ctx context.Context, format dto.ExportFormat) (*dto.ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	report, _, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Render(reportDocument(report))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("report_%s.%s", report.GeneratedAt.Format("20060102_150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func (s *ReportService) compose(ctx context.Context) (*dto.ReportResponse, error) {
	careers, err := s.repo.SubjectsByCareer(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects by career")
	}
	loads, err := s.repo.StudentCreditLoads(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load credit loads")
	}
	slots, err := s.repo.AvailableSlots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject slots")
	}
	if careers == nil {
		careers = []dto.CareerCount{}
	}

	creditBuckets := newBuckets(dto.CreditBucketLow, dto.CreditBucketMedium, dto.CreditBucketHigh, dto.CreditBucketOver)
	sum := decimal.Zero
	for _, load := range loads {
		creditBuckets.add(creditBucket(load))
		sum = sum.Add(decimal.NewFromInt(int64(load)))
	}
	slotBuckets := newBuckets(dto.SlotBucketFull, dto.SlotBucketFew, dto.SlotBucketSome, dto.SlotBucketMany)
	for _, available := range slots {
		slotBuckets.add(slotBucket(available))
	}

	average := decimal.Zero
	if len(loads) > 0 {
		average = sum.Div(decimal.NewFromInt(int64(len(loads))))
	}

	return &dto.ReportResponse{
		SubjectsByCareer:     careers,
		StudentsByCredits:    creditBuckets.counts,
		SubjectsBySlots:      slotBuckets.counts,
		AverageCredits:       average.StringFixed(2),
		EnrolledStudentCount: len(loads),
		GeneratedAt:          s.now().UTC(),
	}, nil
}

func creditBucket(credits int) string {
	switch {
	case credits <= 10:
		return dto.CreditBucketLow
	case credits <= 15:
		return dto.CreditBucketMedium
	case credits <= 20:
		return dto.CreditBucketHigh
	default:
		return dto.CreditBucketOver
	}
}

func slotBucket(available int) string {
	switch {
	case available <= 0:
		return dto.SlotBucketFull
	case available <= 5:
		return dto.SlotBucketFew
	case available <= 10:
		return dto.SlotBucketSome
	default:
		return dto.SlotBucketMany
	}
}

// buckets keeps histogram bins in declaration order, zero counts included.
type buckets struct {
	counts []dto.BucketCount
	index  map[string]int
}

func newBuckets(labels ...string) *buckets {
	b := &buckets{index: make(map[string]int, len(labels))}
	for i, label := range labels {
		b.counts = append(b.counts, dto.BucketCount{Bucket: label})
		b.index[label] = i
	}
	return b
}

func (b *buckets) add(label string) {
	b.counts[b.index[label]].Count++
}

func reportDocument(report *dto.ReportResponse) export.Document {
	careers := export.Dataset{Title: "Subjects by career", Headers: []string{"career", "subjects"}}
	for _, c := range report.SubjectsByCareer {
		careers.Rows = append(careers.Rows, map[string]string{"career": c.Career, "subjects": strconv.Itoa(c.Count)})
	}
	return export.Document{
		Title: "School statistics " + report.GeneratedAt.Format("2006-01-02 15:04"),
		Sections: []export.Dataset{
			careers,
			bucketDataset("Students by credit load", "students", report.StudentsByCredits),
			bucketDataset("Subjects by available slots", "subjects", report.SubjectsBySlots),
			{
				Title:   "Average credits",
				Headers: []string{"average", "enrolled_students"},
				Rows: []map[string]string{{
					"average":           report.AverageCredits,
					"enrolled_students": strconv.Itoa(report.EnrolledStudentCount),
				}},
			},
		},
	}
}

func bucketDataset(title, column string, counts []dto.BucketCount) export.Dataset {
	ds := export.Dataset{Title: title, Headers: []string{"bucket", column}}
	for _, c := range counts {
		ds.Rows = append(ds.Rows, map[string]string{"bucket": c.Bucket, column: strconv.Itoa(c.Count)})
	}
	return ds
}
