package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
)

var structureTracer = otel.Tracer("service/structure")

// Secondary-school options and the abbreviation carried by class names.
var optionAbbreviations = []struct {
	Abbrev string
	Option string
}{
	{"HTS", "Social"},
	{"HP", "Pédagogie"},
	{"Eo", "Electronique"},
	{"HTC", "Construction"},
	{"HTN", "Nutrition"},
}

// DefaultOption is the option of secondary classes without an abbreviation.
const DefaultOption = "Général"

// OptionFromClassName derives the option of a secondary class from its name.
func OptionFromClassName(name string) string {
	for _, o := range optionAbbreviations {
		if strings.Contains(name, o.Abbrev) {
			return o.Option
		}
	}
	return DefaultOption
}

// FormatClassNameWithOption appends the option abbreviation to a base name.
func FormatClassNameWithOption(base, option string) string {
	for _, o := range optionAbbreviations {
		if o.Option == option {
			return base + " " + o.Abbrev
		}
	}
	return base + " " + DefaultOption
}

// StructureService manages classes and student enrollment.
type StructureService struct {
	store   port.SchoolStore
	cache   port.Cache[*domain.SchoolStructure]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewStructureService creates the structure service.
func NewStructureService(store port.SchoolStore, cache port.Cache[*domain.SchoolStructure], metrics *observability.Metrics, logger *zap.Logger) *StructureService {
	return &StructureService{store: store, cache: cache, metrics: metrics, logger: logger}
}

func structureKey(school domain.SchoolType) string { return "structure:" + string(school) }

// Structure returns the classes and options of a school.
func (s *StructureService) Structure(ctx context.Context, school domain.SchoolType) (*domain.SchoolStructure, error) {
	ctx, span := structureTracer.Start(ctx, "StructureService.Structure")
	defer span.End()
	span.SetAttributes(attribute.String("school", string(school)))

	st, hit, err := s.cache.GetOrLoad(ctx, structureKey(school), func(ctx context.Context) (*domain.SchoolStructure, error) {
		return s.store.GetStructure(ctx, string(school))
	})
	if err != nil {
		s.metrics.IncrExternalError("school-structure")
		return nil, fmt.Errorf("school structure: %w", err)
	}
	if hit {
		s.metrics.IncrCacheHit("structure")
	} else {
		s.metrics.IncrCacheMiss("structure")
	}
	return st, nil
}

// CreateClass creates a class after checking its name is unique in the
// school and, for secondary classes, within the option.
func (s *StructureService) CreateClass(ctx context.Context, school domain.SchoolType, class domain.Class) (*domain.Class, error) {
	ctx, span := structureTracer.Start(ctx, "StructureService.CreateClass")
	defer span.End()

	class.Name = strings.TrimSpace(class.Name)
	class.School = school.Title()
	if school.HasOptions() {
		if class.Option == "" {
			class.Option = OptionFromClassName(class.Name)
		}
	} else {
		class.Option = ""
	}
	if err := validateStruct(class); err != nil {
		return nil, err
	}

	existing, err := s.store.ListClasses(ctx, class.School)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if err := checkClassName(class, existing); err != nil {
		return nil, err
	}

	created, err := s.store.CreateClass(ctx, &class)
	if err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}
	s.cache.Delete(structureKey(school))
	s.logger.Info("class created", zap.String("school", class.School), zap.String("name", class.Name))
	return created, nil
}

func checkClassName(class domain.Class, existing []domain.Class) error {
	for _, c := range existing {
		if !strings.EqualFold(c.Name, class.Name) || !strings.EqualFold(c.School, class.School) {
			continue
		}
		return &domain.ErrConflict{Message: fmt.Sprintf("a class named %q already exists in this school", class.Name)}
	}
	if class.Option == "" {
		return nil
	}
	for _, c := range existing {
		if !strings.EqualFold(c.School, class.School) || OptionFromClassName(c.Name) != class.Option {
			continue
		}
		if strings.EqualFold(c.Name, class.Name) {
			return &domain.ErrConflict{Message: fmt.Sprintf("a class named %q already exists in option %q", class.Name, class.Option)}
		}
	}
	return nil
}

// EnrollStudent creates a student whose name is unique within its class.
func (s *StructureService) EnrollStudent(ctx context.Context, school domain.SchoolType, req domain.NewStudentRequest) (*domain.Student, error) {
	ctx, span := structureTracer.Start(ctx, "StructureService.EnrollStudent")
	defer span.End()

	req = normalizeStudent(school, req)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.store.ListStudents(ctx, req.School, req.Class)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	if studentExists(existing, req) {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("a student named %q already exists in this class", req.Name)}
	}

	created, err := s.store.CreateStudent(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return created, nil
}

func normalizeStudent(school domain.SchoolType, req domain.NewStudentRequest) domain.NewStudentRequest {
	req.Name = strings.Join(strings.Fields(req.Name), " ")
	req.Class = strings.TrimSpace(req.Class)
	req.School = school.Title()
	if !school.HasOptions() {
		req.Option = ""
	} else if req.Option == "" && req.Class != "" {
		req.Option = OptionFromClassName(req.Class)
	}
	return req
}

func studentExists(existing []domain.Student, req domain.NewStudentRequest) bool {
	for _, st := range existing {
		if strings.EqualFold(st.Name, req.Name) && st.Class == req.Class && strings.EqualFold(st.School, req.School) {
			return true
		}
	}
	return false
}

// Required CSV columns, matched case-insensitively.
var importColumns = []string{"nom", "postnom", "prenom"}

// ImportStudents enrolls every row of a CSV file into one class. The file
// must have the nom, postnom and prenom columns; fraispaye is optional and
// checked when present. Rows are validated and created independently and
// the report lists the outcome of each.
func (s *StructureService) ImportStudents(ctx context.Context, school domain.SchoolType, class, schoolYearID string, r io.Reader) (*domain.ImportReport, error) {
	ctx, span := structureTracer.Start(ctx, "StructureService.ImportStudents")
	defer span.End()

	class = strings.TrimSpace(class)
	if class == "" {
		return nil, &domain.ErrValidation{Field: "class", Message: "is required"}
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &domain.ErrValidation{Field: "file", Message: "empty or unreadable CSV"}
	}
	cr.FieldsPerRecord = len(header)
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range importColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "missing columns: " + strings.Join(missing, ", ")}
	}

	existing, err := s.store.ListStudents(ctx, school.Title(), class)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	report := &domain.ImportReport{Rows: []domain.ImportRowResult{}}
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		row := domain.ImportRowResult{Line: line, Class: class}

		if err != nil {
			row.Error = "wrong number of columns"
			report.Add(row)
			continue
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		nom, postNom, prenom := field("nom"), field("postnom"), field("prenom")
		row.Name = strings.Join(strings.Fields(nom+" "+postNom+" "+prenom), " ")

		if nom == "" || prenom == "" {
			row.Error = "nom and prenom are required"
			report.Add(row)
			continue
		}
		if paid := field("fraispaye"); paid != "" {
			if v, err := strconv.ParseFloat(paid, 64); err != nil || v < 0 {
				row.Error = "fraispaye must be a positive number"
				report.Add(row)
				continue
			}
		}

		req := normalizeStudent(school, domain.NewStudentRequest{Name: row.Name, Class: class, SchoolYearID: schoolYearID})
		if studentExists(existing, req) {
			row.Error = "student already exists in this class"
			report.Add(row)
			continue
		}
		created, err := s.store.CreateStudent(ctx, &req)
		if err != nil {
			s.logger.Warn("import: student creation failed", zap.Int("line", line), zap.Error(err))
			row.Error = err.Error()
			report.Add(row)
			continue
		}

		row.Created = true
		report.Add(row)
		s.logger.Debug("import: student created", zap.Int("line", line), zap.String("id", created.ID))
		existing = append(existing, domain.Student{Name: req.Name, Class: req.Class, School: req.School})
	}

	s.logger.Info("student import finished",
		zap.String("school", string(school)),
		zap.String("class", class),
		zap.Int("created", report.Created),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
