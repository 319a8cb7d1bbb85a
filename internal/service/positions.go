package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/model"
)

const (
	minPositionText   = 50
	titleScanLines    = 10
	defaultDepartment = "HR"
	importedBy        = "system"
)

var (
	ErrPositionNotFound = errors.New("position not found")
	ErrNoPositionText   = errors.New("not enough text in the job description PDF")
	ErrInvalidFilter    = errors.New("invalid position filter")
)

// Words that mark a line as a job title
var titleKeywords = []string{
	"analyst", "developer", "engineer", "manager", "coordinator", "specialist",
	"analista", "desarrollador", "gerente", "coordinador", "especialista",
}

// PositionStore is the persistence the positions service needs
type PositionStore interface {
	Create(ctx context.Context, p *model.Position) error
	Upsert(ctx context.Context, p *model.Position) (created bool, err error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Position, error)
	List(ctx context.Context, f model.PositionFilter) ([]model.Position, error)
	RecordUsage(ctx context.Context, id uuid.UUID, candidates int) error
}

// NewPosition describes a job description uploaded by an administrator
type NewPosition struct {
	Title      string
	Department string
	Location   string
	Filename   string
	CreatedBy  string
}

// PositionService maintains the catalogue of job descriptions
type PositionService struct {
	store   PositionStore
	extract func([]byte) (string, []string, error)
	now     func() time.Time
}

func NewPositionService(store PositionStore) *PositionService {
	return &PositionService{
		store:   store,
		extract: ExtractPDFText,
		now:     time.Now,
	}
}

// ImportDirectory loads every PDF in dir, creating or refreshing the position
// whose code matches the file name. Unreadable files are logged and skipped.
func (s *PositionService) ImportDirectory(ctx context.Context, dir string) ([]model.Position, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading positions directory: %w", err)
	}

	var imported []model.Position
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Failed to read position PDF")
			continue
		}

		text, _, err := s.extract(data)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Failed to extract position PDF")
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(text)) < minPositionText {
			log.Warn().Str("file", path).Msg("Skipping position PDF with too little text")
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		title := extractTitle(text)
		if title == "" {
			title = titleFromStem(stem)
		}

		now := s.now().UTC()
		p := &model.Position{
			ID:             uuid.New(),
			Code:           positionCode(stem),
			Title:          title,
			Department:     defaultDepartment,
			Status:         model.PositionActive,
			JobDescription: text,
			SourceFile:     entry.Name(),
			WordCount:      len(strings.Fields(text)),
			ExtractedAt:    now,
			CreatedBy:      importedBy,
		}

		created, err := s.store.Upsert(ctx, p)
		if err != nil {
			return imported, fmt.Errorf("saving position %s: %w", p.Code, err)
		}

		log.Info().Str("code", p.Code).Bool("created", created).Int("words", p.WordCount).Msg("Imported position")
		imported = append(imported, *p)
	}

	return imported, nil
}

// CreateFromPDF adds a position from an uploaded job description
func (s *PositionService) CreateFromPDF(ctx context.Context, data []byte, in NewPosition) (*model.Position, []string, error) {
	text, warnings, err := s.extract(data)
	if err != nil {
		return nil, nil, err
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minPositionText {
		return nil, warnings, ErrNoPositionText
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = extractTitle(text)
	}
	if title == "" {
		title = titleFromStem(strings.TrimSuffix(in.Filename, filepath.Ext(in.Filename)))
	}
	dept := strings.TrimSpace(in.Department)
	if dept == "" {
		dept = defaultDepartment
	}

	now := s.now().UTC()
	id := uuid.New()
	p := &model.Position{
		ID:             id,
		Code:           uploadCode(now, id),
		Title:          title,
		Department:     dept,
		Location:       strings.TrimSpace(in.Location),
		Status:         model.PositionActive,
		JobDescription: text,
		SourceFile:     in.Filename,
		WordCount:      len(strings.Fields(text)),
		ExtractedAt:    now,
		CreatedBy:      in.CreatedBy,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, warnings, fmt.Errorf("creating position: %w", err)
	}

	log.Info().Str("code", p.Code).Str("createdBy", p.CreatedBy).Msg("Position created")
	return p, warnings, nil
}

// uploadCode stamps an uploaded position with its time and a slice of its id, so
// uploads within the same second stay unique.
func uploadCode(at time.Time, id uuid.UUID) string {
	return "POS-" + at.Format("20060102150405") + "-" + strings.ToUpper(id.String()[:6])
}

func (s *PositionService) List(ctx context.Context, f model.PositionFilter) ([]model.Position, error) {
	if f.Status != "" && !model.ValidPositionStatus(f.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	return s.store.List(ctx, f)
}

func (s *PositionService) Get(ctx context.Context, id string) (*model.Position, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrPositionNotFound
	}

	p, err := s.store.FindByID(ctx, pid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPositionNotFound
	}
	return p, nil
}

// RecordUsage bumps the usage counters after an analysis against the position
func (s *PositionService) RecordUsage(ctx context.Context, id uuid.UUID, candidates int) error {
	if err := s.store.RecordUsage(ctx, id, candidates); err != nil {
		return fmt.Errorf("recording position usage: %w", err)
	}
	return nil
}

func positionCode(stem string) string {
	return strings.ToUpper(strings.ReplaceAll(stem, "_", "-"))
}

// extractTitle picks the first short line near the top that names a role
func extractTitle(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > titleScanLines {
		lines = lines[:titleScanLines]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if n <= 5 || n >= 100 {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range titleKeywords {
			if strings.Contains(lower, kw) {
				return line
			}
		}
	}
	return ""
}

func titleFromStem(stem string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(stem))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
