package timeql

import (
	"strconv"
	"strings"

	"github.com/traversion/causengine/internal/apperrors"
)

var units = map[string]bool{
	"ms": true, "s": true, "m": true, "h": true, "d": true,
	"milliseconds": true, "seconds": true, "minutes": true, "hours": true, "days": true,
}

// Parser is a recursive-descent parser over a token stream. Parsing is
// pure and deterministic (spec §4.K): it never touches the graph.
type Parser struct {
	lexer *Lexer
	cur   Token
}

// Parse parses src into a Statement, or returns a ParseError carrying the
// offending token and position.
func Parse(src string) (*Statement, error) {
	p := &Parser{lexer: NewLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseStatement()
}

func (p *Parser) advance() error {
	tok, err := p.lexer.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) expectKeyword(kw string) error {
	if p.cur.Kind != TokenKeyword || p.cur.Text != kw {
		return apperrors.ParseErr("expected keyword "+kw, p.cur.Text, p.cur.Position)
	}
	return p.advance()
}

func (p *Parser) atKeyword(kw string) bool {
	return p.cur.Kind == TokenKeyword && p.cur.Text == kw
}

func (p *Parser) parseStatement() (*Statement, error) {
	switch {
	case p.atKeyword("state"):
		return p.parseStateAt()
	case p.atKeyword("traverse"):
		return p.parseTraverse()
	case p.atKeyword("match"):
		return p.parseMatchPattern()
	case p.atKeyword("timeline"):
		return p.parseTimeline()
	case p.atKeyword("compare"):
		return p.parseCompare()
	case p.atKeyword("predict"):
		return p.parsePredict()
	default:
		return nil, apperrors.ParseErr("expected a statement keyword", p.cur.Text, p.cur.Position)
	}
}

// STATE AT '<time>' [WHERE <conds>]
func (p *Parser) parseStateAt() (*Statement, error) {
	if err := p.expectKeyword("state"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("at"); err != nil {
		return nil, err
	}
	t, err := p.parseTime()
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: StmtStateAt, Time: t}
	if p.atKeyword("where") {
		conds, err := p.parseWhereConds()
		if err != nil {
			return nil, err
		}
		stmt.Where = conds
	}
	return stmt, p.requireEOF()
}

// TRAVERSE FROM <event_id> FOLLOWING <direction> [UNTIL <conds>]
func (p *Parser) parseTraverse() (*Statement, error) {
	if err := p.expectKeyword("traverse"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	id, err := p.parseIdentOrString()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("following"); err != nil {
		return nil, err
	}
	dir, err := p.parseDirection()
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: StmtTraverse, EventID: id, Direction: dir}
	if p.atKeyword("until") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		conds, err := p.parseConds()
		if err != nil {
			return nil, err
		}
		stmt.Where = conds
	}
	return stmt, p.requireEOF()
}

func (p *Parser) parseDirection() (Direction, error) {
	if p.cur.Kind != TokenKeyword {
		return "", apperrors.ParseErr("expected direction", p.cur.Text, p.cur.Position)
	}
	var dir Direction
	switch p.cur.Text {
	case "backward":
		dir = DirBackward
	case "forward":
		dir = DirForward
	case "both":
		dir = DirBoth
	default:
		return "", apperrors.ParseErr("expected backward, forward, or both", p.cur.Text, p.cur.Position)
	}
	return dir, p.advance()
}

// MATCH PATTERN WHERE <conds> [FOLLOWED BY <conds>] WITHIN <int> <unit> [IN LAST <int> <unit>]
func (p *Parser) parseMatchPattern() (*Statement, error) {
	if err := p.expectKeyword("match"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("pattern"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("where"); err != nil {
		return nil, err
	}
	conds, err := p.parseConds()
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: StmtMatchPattern, Where: conds}

	if p.atKeyword("followed") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("by"); err != nil {
			return nil, err
		}
		followedBy, err := p.parseConds()
		if err != nil {
			return nil, err
		}
		stmt.FollowedBy = followedBy
		stmt.HasFollowedBy = true
	}

	if err := p.expectKeyword("within"); err != nil {
		return nil, err
	}
	amount, unit, err := p.parseAmountUnit()
	if err != nil {
		return nil, err
	}
	stmt.WithinAmount, stmt.WithinUnit = amount, unit

	if p.atKeyword("in") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("last"); err != nil {
			return nil, err
		}
		amount, unit, err := p.parseAmountUnit()
		if err != nil {
			return nil, err
		}
		stmt.InLastAmount, stmt.InLastUnit = amount, unit
		stmt.HasInLast = true
	}
	return stmt, p.requireEOF()
}

// TIMELINE FROM '<time>' TO '<time>' [WHERE <conds>]
func (p *Parser) parseTimeline() (*Statement, error) {
	if err := p.expectKeyword("timeline"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	from, err := p.parseTime()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("to"); err != nil {
		return nil, err
	}
	to, err := p.parseTime()
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: StmtTimeline, Time: from, Time2: to}
	if p.atKeyword("where") {
		conds, err := p.parseWhereConds()
		if err != nil {
			return nil, err
		}
		stmt.Where = conds
	}
	return stmt, p.requireEOF()
}

// COMPARE '<time>' WITH '<time>' [FOR <metric_list>]
func (p *Parser) parseCompare() (*Statement, error) {
	if err := p.expectKeyword("compare"); err != nil {
		return nil, err
	}
	t1, err := p.parseTime()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("with"); err != nil {
		return nil, err
	}
	t2, err := p.parseTime()
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: StmtCompare, Time: t1, Time2: t2}
	if p.atKeyword("for") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		metrics, err := p.parseMetricList()
		if err != nil {
			return nil, err
		}
		stmt.Metrics = metrics
	}
	return stmt, p.requireEOF()
}

// PREDICT NEXT <int> <unit> [FROM '<time>']
func (p *Parser) parsePredict() (*Statement, error) {
	if err := p.expectKeyword("predict"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("next"); err != nil {
		return nil, err
	}
	amount, unit, err := p.parseAmountUnit()
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: StmtPredict, NextAmount: amount, NextUnit: unit}
	if p.atKeyword("from") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		t, err := p.parseTime()
		if err != nil {
			return nil, err
		}
		stmt.Time = t
		stmt.HasFrom = true
	}
	return stmt, p.requireEOF()
}

func (p *Parser) parseWhereConds() ([]Condition, error) {
	if err := p.expectKeyword("where"); err != nil {
		return nil, err
	}
	return p.parseConds()
}

func (p *Parser) parseConds() ([]Condition, error) {
	var conds []Condition
	for {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
		if !p.atKeyword("and") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return conds, nil
}

func (p *Parser) parseCondition() (Condition, error) {
	if p.cur.Kind != TokenIdent {
		return Condition{}, apperrors.ParseErr("expected field name", p.cur.Text, p.cur.Position)
	}
	field := p.cur.Text
	if err := p.advance(); err != nil {
		return Condition{}, err
	}

	if p.cur.Kind != TokenOperator {
		return Condition{}, apperrors.ParseErr("expected comparison operator", p.cur.Text, p.cur.Position)
	}
	op, ok := parseOp(p.cur.Text)
	if !ok {
		return Condition{}, apperrors.ParseErr("unknown operator", p.cur.Text, p.cur.Position)
	}
	if err := p.advance(); err != nil {
		return Condition{}, err
	}

	val, err := p.parseValue()
	if err != nil {
		return Condition{}, err
	}
	return Condition{Field: field, Op: op, Value: val}, nil
}

func parseOp(text string) (Op, bool) {
	switch text {
	case "=", "==":
		return OpEq, true
	case "!=":
		return OpNeq, true
	case "<":
		return OpLt, true
	case "<=":
		return OpLte, true
	case ">":
		return OpGt, true
	case ">=":
		return OpGte, true
	}
	return "", false
}

func (p *Parser) parseValue() (Value, error) {
	switch p.cur.Kind {
	case TokenString:
		v := Value{IsString: true, Str: p.cur.Text}
		return v, p.advance()
	case TokenNumber:
		n, err := strconv.ParseFloat(p.cur.Text, 64)
		if err != nil {
			return Value{}, apperrors.ParseErr("invalid numeric literal", p.cur.Text, p.cur.Position)
		}
		v := Value{Num: n}
		return v, p.advance()
	default:
		return Value{}, apperrors.ParseErr("expected a string or numeric value", p.cur.Text, p.cur.Position)
	}
}

// parseTime consumes a quoted '<time>' token and parses its contents as
// one of the four literal forms (spec §4.K: every <time> slot in the
// statement grammar is written inside single quotes).
func (p *Parser) parseTime() (TimeExpr, error) {
	if p.cur.Kind != TokenString {
		return TimeExpr{}, apperrors.ParseErr("expected a quoted time literal", p.cur.Text, p.cur.Position)
	}
	text := p.cur.Text
	pos := p.cur.Position
	if err := p.advance(); err != nil {
		return TimeExpr{}, err
	}
	return parseTimeLiteral(text, pos)
}

// parseTimeLiteral parses the inner text of a '<time>' literal: the word
// "now", an integer (epoch ms), an ISO-8601 string, or "<int> <unit>
// ago".
func parseTimeLiteral(text string, pos int) (TimeExpr, error) {
	trimmed := strings.TrimSpace(text)
	if strings.EqualFold(trimmed, "now") {
		return TimeExpr{Kind: TimeNow}, nil
	}

	fields := strings.Fields(trimmed)
	if len(fields) == 3 && strings.EqualFold(fields[2], "ago") {
		amount, err := strconv.ParseInt(fields[0], 10, 64)
		unit := strings.ToLower(fields[1])
		if err == nil && units[unit] {
			return TimeExpr{Kind: TimeRelativeAgo, Amount: amount, Unit: unit}, nil
		}
	}

	if epoch, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return TimeExpr{Kind: TimeEpochMs, EpochMs: epoch}, nil
	}

	if trimmed == "" {
		return TimeExpr{}, apperrors.ParseErr("empty time literal", text, pos)
	}
	return TimeExpr{Kind: TimeISO8601, ISOText: trimmed}, nil
}

func (p *Parser) parseAmountUnit() (int64, string, error) {
	if p.cur.Kind != TokenNumber {
		return 0, "", apperrors.ParseErr("expected an integer", p.cur.Text, p.cur.Position)
	}
	amount, err := strconv.ParseInt(p.cur.Text, 10, 64)
	if err != nil {
		return 0, "", apperrors.ParseErr("invalid integer", p.cur.Text, p.cur.Position)
	}
	pos := p.cur.Position
	if err := p.advance(); err != nil {
		return 0, "", err
	}
	if p.cur.Kind != TokenIdent || !units[strings.ToLower(p.cur.Text)] {
		return 0, "", apperrors.ParseErr("expected a time unit", p.cur.Text, pos)
	}
	unit := strings.ToLower(p.cur.Text)
	return amount, unit, p.advance()
}

func (p *Parser) parseIdentOrString() (string, error) {
	switch p.cur.Kind {
	case TokenIdent:
		text := p.cur.Text
		return text, p.advance()
	case TokenString:
		text := p.cur.Text
		return text, p.advance()
	default:
		return "", apperrors.ParseErr("expected an identifier or string", p.cur.Text, p.cur.Position)
	}
}

func (p *Parser) parseMetricList() ([]string, error) {
	var metrics []string
	for {
		name, err := p.parseIdentOrString()
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, name)
		if p.cur.Kind == TokenPunct && p.cur.Text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return metrics, nil
}

func (p *Parser) requireEOF() error {
	if p.cur.Kind != TokenEOF {
		return apperrors.ParseErr("unexpected trailing input", p.cur.Text, p.cur.Position)
	}
	return nil
}
