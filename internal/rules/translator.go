// Package rules implements the Query Translator, the Rule Store and the
// Rule Engine, the most test-sensitive component of the engine.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/thegrumpylion/google-mcp/internal/model"
)

// Predicate evaluates a rule's full condition set against fetched details.
// It is produced by the Translator whenever some condition can't be pushed
// down to the Gmail server query.
type Predicate func(d *model.EmailDetails) bool

// Translation is the Translator's output for one rule.
type Translation struct {
	ServerQuery      string
	Residual         Predicate
	NeedsFullMessage bool
	RequiredHeaders  []string
	Warnings         []string
}

// HasResidual reports whether a residual client-side check is required.
func (t Translation) HasResidual() bool { return t.Residual != nil }

// Translate converts a Rule's conditions into a server query plus an
// optional residual predicate, per the translation table and
// composition rules.
func Translate(r model.Rule) Translation {
	conjunction := r.ConditionConjunction
	if conjunction == "" {
		conjunction = model.ConjunctionAND
	}

	type compiled struct {
		cond       model.Condition
		expr       string // "" if untranslatable
		warning    string
		needsFull  bool
		header     string
	}

	compiledConds := make([]compiled, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		expr, warn, needsFull, header := translateCondition(c)
		compiledConds = append(compiledConds, compiled{cond: c, expr: expr, warning: warn, needsFull: needsFull, header: header})
	}

	var warnings []string
	var headerSet = make(map[string]struct{})
	for _, c := range compiledConds {
		if c.warning != "" {
			warnings = append(warnings, c.warning)
		}
		if c.header != "" {
			headerSet[c.header] = struct{}{}
		}
	}
	requiredHeaders := make([]string, 0, len(headerSet))
	for h := range headerSet {
		requiredHeaders = append(requiredHeaders, h)
	}

	allTranslate := true
	anyTranslates := false
	residualNeedsFull := false
	var translatedExprs []string
	for _, c := range compiledConds {
		if c.expr == "" {
			allTranslate = false
			if c.needsFull {
				residualNeedsFull = true
			}
			continue
		}
		anyTranslates = true
		translatedExprs = append(translatedExprs, c.expr)
	}

	fullPredicate := func(d *model.EmailDetails) bool {
		return evalConjunction(conjunction, r.Conditions, d)
	}

	switch conjunction {
	case model.ConjunctionOR:
		if !anyTranslates {
			return Translation{ServerQuery: "", Residual: fullPredicate, NeedsFullMessage: residualNeedsFull, RequiredHeaders: requiredHeaders, Warnings: warnings}
		}
		query := "(" + strings.Join(translatedExprs, " OR ") + ")"
		if allTranslate {
			// Every disjunct translates, so the disjunction query matches
			// exactly the messages the rule matches: no residual check.
			return Translation{ServerQuery: query, Residual: nil, NeedsFullMessage: false, RequiredHeaders: requiredHeaders, Warnings: warnings}
		}
		return Translation{ServerQuery: query, Residual: fullPredicate, NeedsFullMessage: residualNeedsFull, RequiredHeaders: requiredHeaders, Warnings: warnings}

	default: // AND
		query := strings.Join(translatedExprs, " ")
		if allTranslate {
			return Translation{ServerQuery: query, Residual: nil, NeedsFullMessage: false, RequiredHeaders: requiredHeaders, Warnings: warnings}
		}
		return Translation{ServerQuery: query, Residual: fullPredicate, NeedsFullMessage: residualNeedsFull, RequiredHeaders: requiredHeaders, Warnings: warnings}
	}
}

// evalConjunction re-checks the full condition set against fetched details,
// honouring the rule's conjunction.
func evalConjunction(conj model.Conjunction, conds []model.Condition, d *model.EmailDetails) bool {
	if len(conds) == 0 {
		return true
	}
	if conj == model.ConjunctionOR {
		for _, c := range conds {
			if evalCondition(c, d) {
				return true
			}
		}
		return false
	}
	for _, c := range conds {
		if !evalCondition(c, d) {
			return false
		}
	}
	return true
}

// translateCondition returns the server expression for c (empty if
// untranslatable), a warning (if the value was rejected), whether
// evaluating the condition client-side needs the full message body, and
// the message header the condition reads (if any, for required-headers
// computation).
func translateCondition(c model.Condition) (expr, warning string, needsFull bool, header string) {
	switch c.Field {
	case model.FieldFrom:
		return fieldOp(c, "from"), "", false, "From"
	case model.FieldTo:
		return fieldOp(c, "to"), "", false, "To"
	case model.FieldCc:
		return fieldOp(c, "cc"), "", false, "Cc"
	case model.FieldSubject:
		return fieldOp(c, "subject"), "", false, "Subject"
	case model.FieldLabel:
		if c.Operator == model.OpContains {
			return "label:" + quoteIfNeeded(c.Value), "", false, ""
		}
	case model.FieldHasAttachment:
		if c.Operator == model.OpIs {
			if strings.EqualFold(c.Value, "true") {
				return "has:attachment", "", false, ""
			}
			if strings.EqualFold(c.Value, "false") {
				return "-has:attachment", "", false, ""
			}
		}
	case model.FieldAttachmentFilename:
		return fieldOp(c, "filename"), "", false, ""
	case model.FieldMessageSize:
		switch c.Operator {
		case model.OpGreaterThan:
			if validSizeValue(c.Value) {
				return "larger:" + c.Value, "", false, ""
			}
			return "", fmt.Sprintf("invalid message_size value %q", c.Value), false, ""
		case model.OpLessThan:
			if validSizeValue(c.Value) {
				return "smaller:" + c.Value, "", false, ""
			}
			return "", fmt.Sprintf("invalid message_size value %q", c.Value), false, ""
		}
	case model.FieldDateAge:
		switch c.Operator {
		case model.OpOlderThan:
			if validAgeValue(c.Value) {
				return "older_than:" + c.Value, "", false, ""
			}
			return "", fmt.Sprintf("invalid date_age value %q", c.Value), false, ""
		case model.OpNewerThan:
			if validAgeValue(c.Value) {
				return "newer_than:" + c.Value, "", false, ""
			}
			return "", fmt.Sprintf("invalid date_age value %q", c.Value), false, ""
		}
	case model.FieldBodySnippet:
		return "", "", true, "" // no server operator; needs full message
	}
	// matches_regex / not_* and any other combination: no server operator.
	return "", "", true, ""
}

// fieldOp handles the contains/equals pair shared by from/to/cc/subject/
// attachment_filename; any other operator is untranslatable.
func fieldOp(c model.Condition, op string) string {
	switch c.Operator {
	case model.OpContains:
		return op + ":" + c.Value
	case model.OpEquals:
		return op + ":" + quoteValue(c.Value)
	default:
		return ""
	}
}

func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, " \"") {
		return quoteValue(v)
	}
	return v
}

func quoteValue(v string) string {
	escaped := strings.ReplaceAll(v, `"`, `\"`)
	return `"` + escaped + `"`
}

var sizeValueRe = regexp.MustCompile(`^\d+[KM]?$`)

func validSizeValue(v string) bool { return sizeValueRe.MatchString(v) }

var ageValueRe = regexp.MustCompile(`^\d+[dmy]$`)

func validAgeValue(v string) bool { return ageValueRe.MatchString(v) }

// evalCondition evaluates a single condition against fetched details. Used
// both directly (residual single-condition cases) and via evalConjunction.
func evalCondition(c model.Condition, d *model.EmailDetails) bool {
	switch c.Field {
	case model.FieldFrom:
		return evalString(c, d.From)
	case model.FieldTo:
		return evalString(c, d.To)
	case model.FieldCc:
		return evalString(c, d.Cc)
	case model.FieldSubject:
		return evalString(c, d.Subject)
	case model.FieldBodySnippet:
		return evalString(c, bodyText(d))
	case model.FieldLabel:
		return evalLabel(c, d.LabelIDs)
	case model.FieldHasAttachment:
		has := hasAttachment(d)
		want := strings.EqualFold(c.Value, "true")
		if c.Operator == model.OpIs {
			return has == want
		}
		return false
	case model.FieldAttachmentFilename:
		return evalAttachmentFilename(c, d)
	case model.FieldMessageSize:
		return evalSize(c, d.SizeEstimate)
	case model.FieldDateAge:
		return evalAge(c, d.InternalDate)
	default:
		return false
	}
}

func evalString(c model.Condition, actual string) bool {
	switch c.Operator {
	case model.OpContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value))
	case model.OpNotContains:
		return !strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value))
	case model.OpEquals:
		return strings.EqualFold(actual, c.Value)
	case model.OpNotEquals:
		return !strings.EqualFold(actual, c.Value)
	case model.OpStartsWith:
		return strings.HasPrefix(strings.ToLower(actual), strings.ToLower(c.Value))
	case model.OpEndsWith:
		return strings.HasSuffix(strings.ToLower(actual), strings.ToLower(c.Value))
	case model.OpMatchesRegex:
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return false
		}
		return re.MatchString(actual)
	default:
		return false
	}
}

func evalLabel(c model.Condition, labelIDs []string) bool {
	for _, id := range labelIDs {
		if strings.EqualFold(id, c.Value) {
			return c.Operator != model.OpNotContains
		}
	}
	return c.Operator == model.OpNotContains
}

func hasAttachment(d *model.EmailDetails) bool {
	var walk func(parts []model.MIMEPart) bool
	walk = func(parts []model.MIMEPart) bool {
		for _, p := range parts {
			if p.Filename != "" {
				return true
			}
			if walk(p.Parts) {
				return true
			}
		}
		return false
	}
	return walk(d.Parts)
}

func evalAttachmentFilename(c model.Condition, d *model.EmailDetails) bool {
	var names []string
	var walk func(parts []model.MIMEPart)
	walk = func(parts []model.MIMEPart) {
		for _, p := range parts {
			if p.Filename != "" {
				names = append(names, p.Filename)
			}
			walk(p.Parts)
		}
	}
	walk(d.Parts)
	for _, n := range names {
		if evalString(c, n) {
			return true
		}
	}
	return false
}

func bodyText(d *model.EmailDetails) string {
	var sb strings.Builder
	var walk func(parts []model.MIMEPart)
	walk = func(parts []model.MIMEPart) {
		for _, p := range parts {
			if strings.HasPrefix(p.MimeType, "text/") {
				sb.WriteString(p.Body)
			}
			walk(p.Parts)
		}
	}
	walk(d.Parts)
	return sb.String()
}

func evalSize(c model.Condition, actual int64) bool {
	n, ok := parseSizeValue(c.Value)
	if !ok {
		return false
	}
	switch c.Operator {
	case model.OpGreaterThan:
		return actual > n
	case model.OpLessThan:
		return actual < n
	default:
		return false
	}
}

func parseSizeValue(v string) (int64, bool) {
	if !validSizeValue(v) {
		return 0, false
	}
	mult := int64(1)
	numPart := v
	if strings.HasSuffix(v, "K") {
		mult = 1024
		numPart = strings.TrimSuffix(v, "K")
	} else if strings.HasSuffix(v, "M") {
		mult = 1024 * 1024
		numPart = strings.TrimSuffix(v, "M")
	}
	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, false
	}
	return n * mult, true
}

func evalAge(c model.Condition, internalDateMillis int64) bool {
	n, ok := parseAgeSeconds(c.Value)
	if !ok {
		return false
	}
	ageSeconds := nowUnix() - internalDateMillis/1000
	switch c.Operator {
	case model.OpOlderThan:
		return ageSeconds > n
	case model.OpNewerThan:
		return ageSeconds < n
	default:
		return false
	}
}

func parseAgeSeconds(v string) (int64, bool) {
	if !validAgeValue(v) {
		return 0, false
	}
	unit := v[len(v)-1]
	numPart := v[:len(v)-1]
	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, false
	}
	switch unit {
	case 'd':
		return n * 86400, true
	case 'm':
		return n * 30 * 86400, true
	case 'y':
		return n * 365 * 86400, true
	default:
		return 0, false
	}
}
