package corp

import (
	"errors"
	"fmt"
	"strings"

	"valuegrade/internal/pkg/dart"
)

var (
	ErrEmptyQuery      = errors.New("company name is empty")
	ErrCompanyNotFound = errors.New("회사 이름을 찾을 수 없습니다. DART에 등록된 기업명인지 확인하세요.")
)

// AmbiguousError is returned when a partial name matches more than one
// company. Matches keeps the order the names were first seen.
type AmbiguousError struct {
	Query   string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("여러 기업이 검색되었습니다: %s. 정확한 기업명을 입력하세요.", strings.Join(e.Matches, ", "))
}

// Directory maps company names to DART corp codes.
type Directory struct {
	codes     map[string]string
	names     []string
	companies map[string]dart.Company
}

// NewDirectory indexes companies by name. A later entry with the same name
// replaces the earlier code but keeps the earlier position.
func NewDirectory(companies []dart.Company) *Directory {
	d := &Directory{
		codes:     make(map[string]string, len(companies)),
		companies: make(map[string]dart.Company, len(companies)),
	}

	for _, c := range companies {
		name := strings.TrimSpace(c.CorpName)
		if name == "" {
			continue
		}
		if _, exists := d.codes[name]; !exists {
			d.names = append(d.names, name)
		}
		d.codes[name] = c.CorpCode
		d.companies[c.CorpCode] = c
	}

	return d
}

func (d *Directory) Len() int {
	return len(d.names)
}

// Resolve turns user input into a corp code. Digit-only input is taken as a
// corp code already.
func (d *Directory) Resolve(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyQuery
	}

	if isDigits(input) {
		return input, nil
	}

	if code, ok := d.codes[input]; ok {
		return code, nil
	}

	var matches []string
	for _, name := range d.names {
		if strings.Contains(name, input) {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return "", ErrCompanyNotFound
	case 1:
		return d.codes[matches[0]], nil
	default:
		return "", &AmbiguousError{Query: input, Matches: matches}
	}
}

// Company returns the directory entry for a corp code.
func (d *Directory) Company(corpCode string) (dart.Company, bool) {
	c, ok := d.companies[corpCode]
	return c, ok
}

// Search lists companies whose Korean or English name contains query.
// English names are matched case-insensitively.
func (d *Directory) Search(query string, limit int) []dart.Company {
	query = strings.TrimSpace(query)
	lower := strings.ToLower(query)

	var out []dart.Company
	for _, name := range d.names {
		c := d.companies[d.codes[name]]
		if query == "" || strings.Contains(name, query) || strings.Contains(strings.ToLower(c.CorpEngName), lower) {
			out = append(out, c)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
