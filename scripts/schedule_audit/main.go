package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/internal/repository"
	"github.com/noah-isme/uniroom-api/internal/service"
	"github.com/noah-isme/uniroom-api/pkg/config"
	"github.com/noah-isme/uniroom-api/pkg/database"
	"github.com/noah-isme/uniroom-api/pkg/logger"
)

type activeLister interface {
	ListActive(ctx context.Context, query models.ActiveScheduleQuery) ([]models.RecurringSchedule, error)
}

type conflictChecker interface {
	CheckRoomConflict(ctx context.Context, exec sqlx.ExtContext, q models.ConflictQuery) (*models.ConflictReport, error)
	CheckTeacherConflict(ctx context.Context, exec sqlx.ExtContext, q models.ConflictQuery) (*models.ConflictReport, error)
}

type finding struct {
	Dimension models.ConflictDimension
	Left      string
	Right     string
}

func main() {
	var (
		from    string
		to      string
		timeout time.Duration
	)

	today := models.TruncateDate(time.Now())
	flag.StringVar(&from, "from", models.FormatDate(today), "Window start (YYYY-MM-DD)")
	flag.StringVar(&to, "to", models.FormatDate(today.AddDate(1, 0, 0)), "Window end (YYYY-MM-DD)")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall audit timeout")
	flag.Parse()

	start, err := models.ParseDate(from)
	if err != nil {
		log.Fatalf("invalid -from: %v", err)
	}
	end, err := models.ParseDate(to)
	if err != nil {
		log.Fatalf("invalid -to: %v", err)
	}
	if end.Before(start) {
		log.Fatalf("-to must not be before -from")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	schedules := repository.NewRecurringScheduleRepository(db)
	conflicts := service.NewConflictService(schedules, repository.NewScheduleExceptionRepository(db), nil, 0, logr)

	findings, scanned, err := audit(ctx, schedules, conflicts, start, end)
	if err != nil {
		logr.Fatal("audit failed", zap.Error(err))
	}

	for _, f := range findings {
		fmt.Printf("[%s] %s <-> %s\n", f.Dimension, f.Left, f.Right)
	}
	fmt.Printf("Scanned entries: %d, conflicting pairs: %d\n", scanned, len(findings))
	if len(findings) > 0 {
		os.Exit(1)
	}
}

// audit checks every active entry in the window against the rest and returns
// each conflicting pair once.
func audit(ctx context.Context, lister activeLister, checker conflictChecker, start, end time.Time) ([]finding, int, error) {
	entries, err := lister.ListActive(ctx, models.ActiveScheduleQuery{WindowStart: start, WindowEnd: end})
	if err != nil {
		return nil, 0, fmt.Errorf("list active entries: %w", err)
	}

	seen := make(map[string]struct{})
	var findings []finding
	record := func(dimension models.ConflictDimension, a string, report *models.ConflictReport) {
		if report == nil || !report.Conflict {
			return
		}
		for _, other := range report.ConflictingEntries {
			left, right := a, other.ID
			if right < left {
				left, right = right, left
			}
			key := string(dimension) + "|" + left + "|" + right
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			findings = append(findings, finding{Dimension: dimension, Left: left, Right: right})
		}
	}

	for _, entry := range entries {
		if !models.RangesOverlap(entry.StartDate, entry.EndDate, start, end) {
			continue
		}
		q := models.ConflictQuery{
			TeacherID:         entry.TeacherID,
			DayOfWeek:         entry.DayOfWeek,
			TimeSlotID:        entry.TimeSlotID,
			StartDate:         laterOf(entry.StartDate, start),
			EndDate:           earlierOf(entry.EndDate, end),
			ExcludeScheduleID: entry.ID,
		}
		if entry.RoomID != nil && *entry.RoomID != "" {
			q.RoomID = *entry.RoomID
			report, err := checker.CheckRoomConflict(ctx, nil, q)
			if err != nil {
				return nil, 0, fmt.Errorf("room check for %s: %w", entry.ID, err)
			}
			record(models.ConflictDimensionRoom, entry.ID, report)
		}
		report, err := checker.CheckTeacherConflict(ctx, nil, q)
		if err != nil {
			return nil, 0, fmt.Errorf("teacher check for %s: %w", entry.ID, err)
		}
		record(models.ConflictDimensionTeacher, entry.ID, report)
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Dimension != findings[j].Dimension {
			return findings[i].Dimension < findings[j].Dimension
		}
		if findings[i].Left != findings[j].Left {
			return findings[i].Left < findings[j].Left
		}
		return findings[i].Right < findings[j].Right
	})
	return findings, len(entries), nil
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
