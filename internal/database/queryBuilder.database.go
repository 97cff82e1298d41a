package database

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	DefaultSort  = "createdAt"
)

// Reserved query parameters. Everything else is a filter candidate.
var reservedParams = []string{"searchTerm", "sort", "limit", "page", "fields"}

type PaginationMeta struct {
	Page      int   `json:"page"`
	Limit     int   `json:"limit"`
	Total     int64 `json:"total"`
	TotalPage int   `json:"totalPage"`
}

// QueryBuilder turns loose request parameters into a search, filter, sort,
// paginate and projection plan for a gorm query. Field names arrive in
// camelCase and only names from the caller supplied allow-lists reach SQL.
type QueryBuilder struct {
	params  map[string]string
	naming  schema.NamingStrategy
	search  []string
	filters []queryFilter
	order   string
	page    int
	limit   int
	fields  []string
}

type queryFilter struct {
	column string
	value  any
}

func NewQueryBuilder(params map[string]string) *QueryBuilder {
	if params == nil {
		params = map[string]string{}
	}

	return &QueryBuilder{
		params: params,
		page:   DefaultPage,
		limit:  DefaultLimit,
	}
}

// Search matches searchTerm case-insensitively against any of the fields.
func (qb *QueryBuilder) Search(fields ...string) *QueryBuilder {
	term := strings.TrimSpace(qb.params["searchTerm"])
	if term == "" {
		return qb
	}

	for _, field := range fields {
		qb.search = append(qb.search, qb.column(field))
	}
	return qb
}

// Filter turns every non reserved parameter that is in allowed into an
// equality predicate. Unknown parameters are ignored.
func (qb *QueryBuilder) Filter(allowed ...string) *QueryBuilder {
	keys := make([]string, 0, len(qb.params))
	for key := range qb.params {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if slices.Contains(reservedParams, key) || !slices.Contains(allowed, key) {
			continue
		}
		qb.filters = append(qb.filters, queryFilter{
			column: qb.column(key),
			value:  parseFilterValue(qb.params[key]),
		})
	}
	return qb
}

// Sort orders by the sort parameter, "-field" meaning descending. Fields not
// in allowed fall back to createdAt.
func (qb *QueryBuilder) Sort(allowed ...string) *QueryBuilder {
	sort := strings.TrimSpace(qb.params["sort"])
	if sort == "" {
		sort = DefaultSort
	}

	direction := "ASC"
	field := sort
	if strings.HasPrefix(sort, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(sort, "-")
	}

	if field != DefaultSort && !slices.Contains(allowed, field) {
		field = DefaultSort
	}

	qb.order = qb.column(field) + " " + direction
	return qb
}

func (qb *QueryBuilder) Paginate() *QueryBuilder {
	qb.page = positiveInt(qb.params["page"], DefaultPage)
	qb.limit = min(positiveInt(qb.params["limit"], DefaultLimit), MaxLimit)
	return qb
}

// Fields restricts the selected columns. The id column is always included.
func (qb *QueryBuilder) Fields(allowed ...string) *QueryBuilder {
	raw := strings.TrimSpace(qb.params["fields"])
	if raw == "" {
		return qb
	}

	qb.fields = []string{"id"}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" || field == "id" || !slices.Contains(allowed, field) {
			continue
		}
		column := qb.column(field)
		if !slices.Contains(qb.fields, column) {
			qb.fields = append(qb.fields, column)
		}
	}
	return qb
}

// LikeEscaped is the predicate for patterns built by ContainsPattern.
const LikeEscaped = `LIKE ? ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern lowercases term and wraps it for a substring match with the
// LIKE wildcards in it taken literally.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// Where applies only the search and filter predicates.
func (qb *QueryBuilder) Where(tx *gorm.DB) *gorm.DB {
	if len(qb.search) > 0 {
		pattern := ContainsPattern(qb.params["searchTerm"])
		clauses := make([]string, 0, len(qb.search))
		args := make([]any, 0, len(qb.search))
		for _, column := range qb.search {
			clauses = append(clauses, "LOWER("+column+") "+LikeEscaped)
			args = append(args, pattern)
		}
		tx = tx.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}

	for _, filter := range qb.filters {
		tx = tx.Where(filter.column+" = ?", filter.value)
	}

	return tx
}

// Apply adds predicates, ordering, pagination and projection to tx.
func (qb *QueryBuilder) Apply(tx *gorm.DB) *gorm.DB {
	tx = qb.Where(tx)

	if qb.order != "" {
		tx = tx.Order(qb.order)
	}

	if len(qb.fields) > 0 {
		tx = tx.Select(qb.fields)
	}

	return tx.Offset((qb.page - 1) * qb.limit).Limit(qb.limit)
}

// CountTotal counts the rows matching the predicates of tx plus the builder
// predicates and reports the page window.
func (qb *QueryBuilder) CountTotal(ctx context.Context, tx *gorm.DB, model any) (PaginationMeta, error) {
	var total int64
	if err := qb.Where(tx.WithContext(ctx).Model(model)).Count(&total).Error; err != nil {
		return PaginationMeta{}, err
	}

	return PaginationMeta{
		Page:      qb.page,
		Limit:     qb.limit,
		Total:     total,
		TotalPage: int(math.Ceil(float64(total) / float64(qb.limit))),
	}, nil
}

func (qb *QueryBuilder) column(field string) string {
	return qb.naming.ColumnName("", field)
}

func positiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

func parseFilterValue(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	default:
		return raw
	}
}
