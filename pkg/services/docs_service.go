package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/apimesh/apimesh-engine/pkg/models"
	"github.com/apimesh/apimesh-engine/pkg/repositories"
)

// DocsService renders markdown documentation for a program from its
// operation records.
type DocsService interface {
	// GenerateProgramDocs renders the full markdown document for one
	// program: YAML front matter, then one section per category with the
	// operations that belong to it.
	GenerateProgramDocs(ctx context.Context, programID uuid.UUID) (string, error)
}

type docsService struct {
	programRepo   repositories.ProgramRepository
	operationRepo repositories.OperationRepository
	logger        *zap.Logger
}

// NewDocsService creates a new DocsService.
func NewDocsService(programRepo repositories.ProgramRepository, operationRepo repositories.OperationRepository, logger *zap.Logger) DocsService {
	return &docsService{
		programRepo:   programRepo,
		operationRepo: operationRepo,
		logger:        logger.Named("docs-service"),
	}
}

var _ DocsService = (*docsService)(nil)

// docFrontMatter is the YAML header of a generated document.
type docFrontMatter struct {
	Title       string    `yaml:"title"`
	Vendor      string    `yaml:"vendor,omitempty"`
	Description string    `yaml:"description,omitempty"`
	GeneratedAt time.Time `yaml:"generated_at"`
}

type docSection struct {
	Heading    string
	Operations []*models.Operation
}

type docData struct {
	Program  *models.Program
	Sections []docSection
}

var docTemplate = template.Must(template.New("program-docs").Funcs(template.FuncMap{
	"variableNames": sortedVariableNames,
}).Parse(`# {{.Program.Name}}
{{if .Program.Description}}
{{.Program.Description}}
{{end}}{{range .Sections}}
## {{.Heading}}
{{range .Operations}}
### {{.Name}}

- **Type**: {{.Type}}{{if .Vendor}}
- **Vendor**: {{.Vendor}}{{end}}{{if .Required}}
- **Required**: yes{{end}}{{if .Tags}}
- **Tags**: {{range $i, $t := .Tags}}{{if $i}}, {{end}}` + "`{{$t}}`" + `{{end}}{{end}}
{{if .Description}}
{{.Description}}
{{end}}{{if .Query}}
` + "```graphql\n{{.Query}}\n```" + `
{{end}}{{if .Variables}}
| Variable | Type | Description |
|----------|------|-------------|
{{- $vars := .Variables}}
{{- range variableNames $vars}}{{$v := index $vars .}}
| {{.}} | {{$v.Type}} | {{$v.Description}} |
{{- end}}
{{end}}{{end}}{{end}}`))

func (s *docsService) GenerateProgramDocs(ctx context.Context, programID uuid.UUID) (string, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		return "", fmt.Errorf("failed to load program: %w", err)
	}
	if program == nil {
		return "", fmt.Errorf("program %s not found", programID)
	}

	ops, err := s.operationRepo.List(ctx, repositories.OperationFilter{Vendor: program.Vendor})
	if err != nil {
		return "", fmt.Errorf("failed to load operations: %w", err)
	}

	front, err := yaml.Marshal(docFrontMatter{
		Title:       program.Name,
		Vendor:      program.Vendor,
		Description: program.Description,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render front matter: %w", err)
	}

	var body strings.Builder
	data := docData{Program: program, Sections: groupByCategory(ops)}
	if err := docTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}

	s.logger.Info("Generated program docs",
		zap.String("program_id", programID.String()),
		zap.Int("operations", len(ops)))

	return "---\n" + string(front) + "---\n\n" + body.String(), nil
}

// groupByCategory buckets operations by category. Section headings are the
// pluralized category names; uncategorized operations land in "Operations".
func groupByCategory(ops []*models.Operation) []docSection {
	buckets := map[string][]*models.Operation{}
	var order []string
	for _, op := range ops {
		category := op.Category
		if category == "" {
			category = "operation"
		}
		if _, ok := buckets[category]; !ok {
			order = append(order, category)
		}
		buckets[category] = append(buckets[category], op)
	}
	sort.Strings(order)

	sections := make([]docSection, 0, len(order))
	for _, category := range order {
		sections = append(sections, docSection{
			Heading:    titleCase(inflection.Plural(category)),
			Operations: buckets[category],
		})
	}
	return sections
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sortedVariableNames(vars map[string]models.VariableDescriptor) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
