package analysis

import (
	"slices"
	"strings"

	"github.com/vk/burstmd/internal/block"
	"github.com/vk/burstmd/internal/script/lexer"
)

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "**=": true,
	"<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true, "^=": true,
	"&&=": true, "||=": true, "??=": true,
}

// exprBefore holds the tokens after which `{` opens an object literal.
var exprBefore = map[string]bool{
	"=": true, "(": true, ",": true, ":": true, "[": true, "?": true,
	"||": true, "&&": true, "??": true, "+": true, "-": true, "*": true, "/": true,
	"%": true, "!": true, "==": true, "===": true, "!=": true, "!==": true,
	"<": true, ">": true, "<=": true, ">=": true, "...": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "??=": true, "||=": true, "&&=": true,
	"return": true, "typeof": true, "await": true, "void": true, "in": true,
	"delete": true, "new": true, "instanceof": true,
}

var statementKeywords = map[string]bool{
	"let": true, "const": true, "var": true, "function": true,
	"if": true, "for": true, "while": true, "do": true, "return": true,
}

type scope struct {
	id       int
	names    map[string]bool
	function bool
	// expr marks the body of an arrow function without braces; it closes at
	// the end of the enclosing expression.
	expr  bool
	depth int
	// summary collects the effects of the outermost function body. named
	// is set for functions declared at the top level.
	summary *effects
	named   bool
}

type group struct {
	// base is the outermost group of a walk and is never closed.
	base    bool
	object  bool
	array   bool
	ternary int
	scoped  bool
	// loop marks a for-loop head; its scope stays open for a braced body.
	loop bool
	// extra counts scopes closed together with this group.
	extra int
}

type declaration struct {
	kind       string
	depth      int
	expectName bool
	lastIdx    int
}

type scanner struct {
	meta   Metadata
	fx     *effects
	scopes []*scope
	groups []group
	decl   *declaration

	// state for the next function body
	params     []string
	expectBody bool
	pendingFn  string
	// carry is set when a loop head scope continues into the next group.
	carry bool
	// pendingArgs is the receiver key of a mutating call whose arguments
	// follow.
	pendingArgs string

	// prefix and nextScope make local keys unique across blocks.
	prefix    string
	nextScope int
	bindings  []*binding
	bound     []*binding
	opaque    map[string]bool

	functions map[string]*effects
	declared  []string
	failed    bool
}

func scan(src string, meta Metadata, prefix string) *scanner {
	s := &scanner{
		meta:      meta,
		fx:        newEffects(),
		scopes:    []*scope{{names: map[string]bool{}, function: true}},
		functions: make(map[string]*effects),
		prefix:    prefix,
		opaque:    make(map[string]bool),
	}
	toks, err := lexer.Tokenize(src)
	if err != nil {
		// The parser reports the error; until then assume the worst.
		s.failed = true
		return s
	}
	s.walk(toks, false)
	return s
}

func (s *scanner) result(b block.TemplateBlock) DependencyAnalysis {
	a := DependencyAnalysis{
		BlockID:          b.ID,
		IsExecution:      b.IsExecution,
		VariablesRead:    sortedKeys(s.fx.reads),
		VariablesWritten: sortedKeys(s.fx.writes),
		HasTrWrite:       s.fx.trWrite,
		ReadsTr:          s.fx.trRead,
		BarrierCalls:     sortedKeys(s.fx.barriers),
		IsBarrier:        len(s.fx.barriers) > 0 || s.failed,
	}
	if len(s.declared) > 0 {
		a.FunctionsDeclared = slices.Clone(s.declared)
		slices.Sort(a.FunctionsDeclared)
	}
	return a
}

// finish completes the block summary once every token is scanned. known
// holds the summaries of earlier blocks and g the aliases between their
// variables; g gains this block's aliases.
func (s *scanner) finish(known map[string]*effects, g *aliasGraph) {
	s.endBindings(func(*binding) bool { return true })
	// Functions declared by this block take precedence over earlier ones.
	lookup := func(name string) *effects {
		if fx, ok := s.functions[name]; ok {
			return fx
		}
		return known[name]
	}
	for _, fx := range s.functions {
		absorb(fx, lookup)
	}
	absorb(s.fx, lookup)
	s.link(g, lookup)
	s.attachSummaries(known, lookup)
	s.expandMutations(g)
}

func absorb(target *effects, lookup func(string) *effects) {
	done := make(map[string]bool)
	for {
		changed := false
		for _, name := range sortedKeys(target.reads) {
			if done[name] {
				continue
			}
			done[name] = true
			if fx := lookup(name); fx != nil && fx != target {
				target.merge(fx)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// record applies fn to the block effects and to the outermost enclosing
// function summary, if any.
func (s *scanner) record(fn func(*effects)) {
	fn(s.fx)
	if sc := s.summaryScope(); sc != nil {
		fn(sc.summary)
	}
}

func (s *scanner) summaryScope() *scope {
	for _, sc := range s.scopes {
		if sc.summary != nil {
			return sc
		}
	}
	return nil
}

func (s *scanner) read(name string) {
	if s.isLocal(name) {
		return
	}
	s.record(func(e *effects) { e.read(name) })
}

func (s *scanner) write(name string) {
	if s.isLocal(name) {
		return
	}
	s.record(func(e *effects) { e.write(name) })
}

// isLocal reports whether name is bound by a scope nested inside the block.
// Top-level declarations are shared with other blocks and never local.
func (s *scanner) isLocal(name string) bool {
	for _, sc := range s.scopes[1:] {
		if sc.names[name] {
			return true
		}
	}
	return false
}

func (s *scanner) declare(name, kind string) {
	target := len(s.scopes) - 1
	if kind == "var" {
		for target > 0 && !s.scopes[target].function {
			target--
		}
	}
	if target == 0 {
		s.record(func(e *effects) { e.write(name) })
		return
	}
	s.scopes[target].names[name] = true
}

func (s *scanner) pushScope(sc *scope) {
	s.nextScope++
	sc.id = s.nextScope
	switch outer := s.summaryScope(); {
	case s.pendingFn != "" && len(s.scopes) == 1:
		sc.summary, sc.named = newEffects(), true
		s.functions[s.pendingFn] = sc.summary
	case !sc.function:
	case outer == nil:
		sc.summary = newEffects()
		s.noteFunction(sc.summary)
	default:
		outer.summary.makesFn = true
	}
	s.pendingFn = ""
	if sc.function {
		// Parameters may hold any value.
		for name := range sc.names {
			s.opaque[localKey(s.prefix, sc.id, name)] = true
		}
	}
	s.scopes = append(s.scopes, sc)
}

func (s *scanner) popScope() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

func (s *scanner) top() *group { return &s.groups[len(s.groups)-1] }

// closeExprScopes ends arrow bodies opened at depth or deeper.
func (s *scanner) closeExprScopes(depth int) {
	for len(s.scopes) > 1 {
		sc := s.scopes[len(s.scopes)-1]
		if !sc.expr || sc.depth < depth {
			return
		}
		s.popScope()
	}
}

// walk scans toks. nested is set for the expressions of a template literal,
// which share the enclosing scopes.
func (s *scanner) walk(toks []lexer.Token, nested bool) {
	savedGroups, savedDecl := s.groups, s.decl
	base := len(s.groups)
	s.groups = append(slices.Clone(s.groups), group{base: true})
	defer func() { s.groups = savedGroups }()
	if nested {
		s.decl = nil
		defer func() { s.decl = savedDecl }()
	}

	params := arrowParams(toks)
	skip := make(map[int]bool)

	prevIs := func(i int, texts ...string) bool {
		if i == 0 {
			return false
		}
		for _, t := range texts {
			if toks[i-1].Is(t) {
				return true
			}
		}
		return false
	}
	nextIs := func(i int, text string) bool {
		return i+1 < len(toks) && toks[i+1].Is(text)
	}

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		depth := len(s.groups)

		if tok.NewlineBefore && i > 0 && statementBreak(toks[i-1], tok) {
			s.closeExprScopes(depth)
			s.endBindings(func(b *binding) bool { return !b.grouped && b.depth == depth })
			if s.decl != nil && s.decl.depth == depth {
				s.decl = nil
			}
		}

		switch tok.Kind {
		case lexer.EOF:
			s.closeExprScopes(base + 1)
			s.endBindings(func(b *binding) bool { return b.depth > base })
			if !nested {
				s.decl = nil
			}
			return

		case lexer.Template:
			for _, src := range tok.Exprs {
				sub, err := lexer.Tokenize(src)
				if err != nil {
					s.failed = true
					continue
				}
				s.walk(sub, true)
			}

		case lexer.Keyword:
			switch tok.Text {
			case "let", "const", "var":
				s.decl = &declaration{kind: tok.Text, depth: depth, expectName: true, lastIdx: -1}
			case "function":
				s.function(toks, i, exprPosition(toks, i), skip, params)
			case "delete":
				if i+1 < len(toks) && toks[i+1].Kind == lexer.Ident {
					s.mutate(toks[i+1].Text, true)
				}
			}

		case lexer.Ident:
			switch {
			case skip[i]:
			case params[i]:
				s.params = append(s.params, tok.Text)
			case prevIs(i, ".", "?."):
				s.member(toks, i)
			case s.decl != nil && s.decl.expectName && s.decl.depth == depth:
				s.declare(tok.Text, s.decl.kind)
				s.decl.expectName = false
				s.decl.lastIdx = i
				if len(s.scopes) == 1 && nextIs(i, "=") && functionFollows(toks, i+2) {
					s.pendingFn = tok.Text
					s.declared = append(s.declared, tok.Text)
				}
			case s.decl != nil && tok.Text == "of" && s.decl.lastIdx == i-1:
				s.startBinding(s.keyOf(toks[i-1].Text), bindElem, true)
			case i > 1 && toks[i-2].Is("for") && prevIs(i, "(") && i+1 < len(toks) &&
				(toks[i+1].Text == "of" || toks[i+1].Is("in")):
				// for (x of xs) assigns x
				s.write(tok.Text)
				if toks[i+1].Text == "of" {
					skip[i+1] = true
					s.startBinding(s.keyOf(tok.Text), bindElem, true)
				}
			case s.top().object && s.top().ternary == 0 && nextIs(i, ":"):
				// object key
			default:
				if nextIs(i, "(") {
					s.call(toks, i, i)
					s.noteCall(tok.Text)
				} else if !nextIs(i, "=") {
					s.noteRef(tok.Text, nextIs(i, ".") || nextIs(i, "?.") || nextIs(i, "["))
				}
				if !nextIs(i, "=") {
					s.read(tok.Text)
				}
			}

		case lexer.Punct:
			s.punct(toks, i, params)
		}
	}
}

func (s *scanner) punct(toks []lexer.Token, i int, params map[int]bool) {
	tok := toks[i]
	depth := len(s.groups)
	switch text := tok.Text; {
	case text == "(" || text == "[":
		g := group{}
		if text == "(" && i > 0 && toks[i-1].Is("for") {
			// loop head declarations belong to the loop
			g.scoped, g.loop = true, true
			s.pushScope(&scope{names: map[string]bool{}})
		}
		g.array = text == "[" && exprPosition(toks, i)
		s.groups = append(s.groups, g)
		if text == "(" && s.pendingArgs != "" {
			s.startBinding(s.pendingArgs, bindStore, true)
		}
		s.pendingArgs = ""

	case text == "{":
		g := group{}
		prevExpr := exprPosition(toks, i)
		switch {
		case s.expectBody:
			g.scoped = true
			sc := &scope{names: map[string]bool{}, function: true}
			for _, p := range s.params {
				sc.names[p] = true
			}
			s.params, s.expectBody = nil, false
			s.pushScope(sc)
		case prevExpr:
			g.object = true
		default:
			g.scoped = true
			s.pushScope(&scope{names: map[string]bool{}})
		}
		if s.carry {
			g.extra, s.carry = 1, false
		}
		s.groups = append(s.groups, g)

	case text == ")" || text == "]" || text == "}":
		if len(s.groups) > 1 && !s.top().base {
			g := s.groups[len(s.groups)-1]
			s.groups = s.groups[:len(s.groups)-1]
			s.closeExprScopes(depth)
			switch {
			case g.loop && i+1 < len(toks) && toks[i+1].Is("{"):
				s.carry = true
			case g.scoped:
				s.popScope()
			}
			for range g.extra {
				s.popScope()
			}
			s.endBindings(func(b *binding) bool { return b.depth > len(s.groups) })
		}
		if s.decl != nil && len(s.groups) < s.decl.depth {
			s.decl = nil
		}

	case text == "," || text == ";":
		s.closeExprScopes(depth)
		s.endBindings(func(b *binding) bool { return !b.grouped && b.depth == depth })
		if s.decl != nil && s.decl.depth == depth {
			if text == ";" {
				s.decl = nil
			} else {
				s.decl.expectName = true
			}
		}

	case text == "?":
		s.top().ternary++

	case text == ":":
		if g := s.top(); g.ternary > 0 {
			g.ternary--
		}

	case text == "=>":
		if i+1 < len(toks) && toks[i+1].Is("{") {
			s.expectBody = true
			return
		}
		sc := &scope{names: map[string]bool{}, function: true, expr: true, depth: depth}
		for _, p := range s.params {
			sc.names[p] = true
		}
		s.params = nil
		s.pushScope(sc)

	case assignOps[text]:
		if i == 0 || params[i-1] {
			return
		}
		if s.decl != nil && s.decl.lastIdx == i-1 {
			if text == "=" {
				s.startBinding(s.keyOf(toks[i-1].Text), bindValue, false)
			}
			return
		}
		root, member, ok := chainRoot(toks, i-1)
		if !ok {
			return
		}
		name := toks[root].Text
		if member {
			s.mutate(name, len(strings.Split(chainPath(toks, root, i-1), ".")) > 2)
		} else {
			s.write(name)
		}
		if member || text != "=" {
			s.read(name)
		}
		switch text {
		case "=", "||=", "&&=", "??=":
			kind := bindValue
			if member {
				kind = bindStore
			}
			s.startBinding(s.keyOf(name), kind, false)
		}

	case text == "++" || text == "--":
		var root int
		var member, ok bool
		if i > 0 && !tok.NewlineBefore && endsOperand(toks[i-1]) {
			root, member, ok = chainRoot(toks, i-1)
		} else if i+1 < len(toks) && toks[i+1].Kind == lexer.Ident {
			root, ok = i+1, true
			member = i+2 < len(toks) && (toks[i+2].Is(".") || toks[i+2].Is("?.") || toks[i+2].Is("["))
		}
		if !ok {
			return
		}
		if member {
			s.mutate(toks[root].Text, false)
		} else {
			s.write(toks[root].Text)
		}
		s.read(toks[root].Text)
	}
}

// function handles the `function` keyword at toks[i].
func (s *scanner) function(toks []lexer.Token, i int, inExpr bool, skip, params map[int]bool) {
	j := i + 1
	if j < len(toks) && toks[j].Kind == lexer.Ident {
		name := toks[j].Text
		skip[j] = true
		switch {
		case inExpr:
			s.params = append(s.params, name)
		case len(s.scopes) == 1 && len(s.groups) == 1:
			s.declare(name, "var")
			s.pendingFn = name
			s.declared = append(s.declared, name)
		default:
			s.declare(name, "let")
		}
		j++
	}
	if j < len(toks) && toks[j].Is("(") {
		if end := matchForward(toks, j); end > 0 {
			for _, k := range paramIndexes(toks, j, end) {
				params[k] = true
			}
		}
	}
	s.expectBody = true
}

// member handles a property name at toks[i]: mutating method calls write the
// root variable, and calls through tp.* consult the handler metadata.
func (s *scanner) member(toks []lexer.Token, i int) {
	if i+1 >= len(toks) || !toks[i+1].Is("(") {
		return
	}
	if mutatingMethods[toks[i].Text] {
		if root, member, ok := chainRoot(toks, i-2); ok {
			s.mutate(toks[root].Text, member)
			s.pendingArgs = s.keyOf(toks[root].Text)
		}
	}
	root, _, ok := chainRoot(toks, i)
	if !ok {
		return
	}
	if toks[i].Text == "assign" && toks[root].Text == "Object" && i+2 < len(toks) &&
		toks[i+2].Kind == lexer.Ident {
		s.mutate(toks[i+2].Text, false)
		s.pendingArgs = s.keyOf(toks[i+2].Text)
	}
	s.call(toks, root, i)
}

// call classifies a call whose callee chain spans toks[root..end].
func (s *scanner) call(toks []lexer.Token, root, end int) {
	path := chainPath(toks, root, end)
	name := toks[end].Text
	barrier := barrierNames[name]

	segs := strings.Split(path, ".")
	if len(segs) == 3 && segs[0] == "tp" && s.meta != nil {
		if s.meta.IsBarrier(segs[1], segs[2]) {
			barrier = true
		}
		if !s.meta.IsPure(segs[1], segs[2]) {
			module := "tp." + segs[1]
			s.record(func(e *effects) {
				e.read(module)
				e.write(module)
			})
		}
	}
	if barrier {
		s.record(func(e *effects) { e.barriers[path] = true })
	}
}

// chainRoot walks back from the last token of a member chain to the
// identifier it starts with. member reports whether the chain has more than
// one element.
func chainRoot(toks []lexer.Token, end int) (root int, member bool, ok bool) {
	j := end
	for j >= 0 {
		t := toks[j]
		switch {
		case t.Kind == lexer.Ident:
			if j > 0 && (toks[j-1].Is(".") || toks[j-1].Is("?.")) {
				j -= 2
				member = true
				continue
			}
			return j, member, true
		case t.Is("]") || t.Is(")"):
			open := matchBack(toks, j)
			if open <= 0 {
				return 0, false, false
			}
			j = open - 1
			if toks[j].Is("?.") {
				j--
			}
			member = true
		default:
			return 0, false, false
		}
	}
	return 0, false, false
}

// chainPath renders the dotted names of toks[root..end]. Index and call
// segments render as "?".
func chainPath(toks []lexer.Token, root, end int) string {
	var parts []string
	for j := root; j <= end; j++ {
		switch t := toks[j]; {
		case t.Kind == lexer.Ident:
			parts = append(parts, t.Text)
		case t.Is("[") || t.Is("("):
			parts = append(parts, "?")
			if k := matchForward(toks, j); k > 0 {
				j = k
			}
		}
	}
	return strings.Join(parts, ".")
}

func endsOperand(t lexer.Token) bool {
	return t.Kind == lexer.Ident || t.Is("]") || t.Is(")")
}

func matchBack(toks []lexer.Token, close int) int {
	depth := 0
	for j := close; j >= 0; j-- {
		switch toks[j].Text {
		case ")", "]", "}":
			if toks[j].Kind == lexer.Punct {
				depth++
			}
		case "(", "[", "{":
			if toks[j].Kind == lexer.Punct {
				depth--
				if depth == 0 {
					return j
				}
			}
		}
	}
	return -1
}

func matchForward(toks []lexer.Token, open int) int {
	depth := 0
	for j := open; j < len(toks); j++ {
		if toks[j].Kind != lexer.Punct {
			continue
		}
		switch toks[j].Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// paramIndexes returns the parameter name tokens between the parentheses at
// open and close.
func paramIndexes(toks []lexer.Token, open, close int) []int {
	var out []int
	depth := 0
	for k := open + 1; k < close; k++ {
		t := toks[k]
		if t.Kind == lexer.Punct {
			switch t.Text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			}
			continue
		}
		if depth == 0 && t.Kind == lexer.Ident {
			if p := toks[k-1]; p.Is("(") || p.Is(",") || p.Is("...") {
				out = append(out, k)
			}
		}
	}
	return out
}

// arrowParams marks the parameter tokens of every arrow function in toks.
func arrowParams(toks []lexer.Token) map[int]bool {
	params := make(map[int]bool)
	for k, t := range toks {
		if !t.Is("=>") || k == 0 {
			continue
		}
		prev := toks[k-1]
		switch {
		case prev.Kind == lexer.Ident:
			params[k-1] = true
		case prev.Is(")"):
			if open := matchBack(toks, k-1); open >= 0 {
				for _, idx := range paramIndexes(toks, open, k-1) {
					params[idx] = true
				}
			}
		}
	}
	return params
}

// functionFollows reports whether a function value starts at toks[i].
func functionFollows(toks []lexer.Token, i int) bool {
	if i >= len(toks) {
		return false
	}
	if toks[i].Is("async") {
		i++
	}
	if i >= len(toks) {
		return false
	}
	switch t := toks[i]; {
	case t.Is("function"):
		return true
	case t.Kind == lexer.Ident:
		return i+1 < len(toks) && toks[i+1].Is("=>")
	case t.Is("("):
		end := matchForward(toks, i)
		return end > 0 && end+1 < len(toks) && toks[end+1].Is("=>")
	}
	return false
}

// exprPosition reports whether toks[i] is where an expression is expected.
func exprPosition(toks []lexer.Token, i int) bool {
	if i == 0 {
		return false
	}
	p := toks[i-1]
	return (p.Kind == lexer.Punct || p.Kind == lexer.Keyword) && exprBefore[p.Text]
}

// statementBreak reports whether a line break between prev and next ends a
// statement.
func statementBreak(prev, next lexer.Token) bool {
	if next.Kind == lexer.Keyword {
		if !statementKeywords[next.Text] {
			return false
		}
	} else if next.Kind != lexer.Ident {
		return false
	}
	switch prev.Kind {
	case lexer.Ident, lexer.Number, lexer.String, lexer.Template:
		return true
	case lexer.Keyword:
		switch prev.Text {
		case "true", "false", "null", "this", "break", "continue":
			return true
		}
	case lexer.Punct:
		switch prev.Text {
		case ")", "]", "}", "++", "--":
			return true
		}
	}
	return false
}
