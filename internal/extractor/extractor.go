package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/ludo-technologies/dupscan/domain"
)

// Extractor parses Python source with tree-sitter and produces code
// units with structural token signatures. Identifiers and literals are
// dropped; only the shape of the code survives into the tokens, so
// renamed duplicates still collide.
type Extractor struct {
	parser *sitter.Parser
}

// New creates an extractor with the Python grammar loaded.
func New() *Extractor {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Extractor{parser: parser}
}

// ExtractFile parses one source file and returns its code units: every
// function and method, every class, and a module-level unit when the
// file has structural statements outside any definition.
func (e *Extractor) ExtractFile(ctx context.Context, filePath string, source []byte) ([]*domain.CodeUnit, error) {
	tree, err := e.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, domain.NewParseError(filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, domain.NewParseError(filePath, fmt.Errorf("syntax errors in source"))
	}

	var units []*domain.CodeUnit

	walk(root, func(node *sitter.Node) bool {
		switch node.Type() {
		case "function_definition":
			units = append(units, e.extractUnit(node, source, filePath, domain.UnitKindFunction))
		case "class_definition":
			units = append(units, e.extractUnit(node, source, filePath, domain.UnitKindClass))
			return true // methods are collected by the continued walk
		}
		return true
	})

	if module := e.extractModuleUnit(root, source, filePath); module != nil {
		units = append(units, module)
	}

	return units, nil
}

// extractUnit builds a unit from a definition node, tokenizing its full
// subtree.
func (e *Extractor) extractUnit(node *sitter.Node, source []byte, filePath string, kind domain.UnitKind) *domain.CodeUnit {
	t := newTokenizer(source)
	t.tokenizeChildren(node, true)

	return &domain.CodeUnit{
		Name:   definitionName(node, source),
		Kind:   kind,
		Tokens: append([]string{definitionToken(node)}, t.tokens...),
		Location: domain.UnitLocation{
			FilePath:  filePath,
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		},
		Dependencies: t.dependencies(),
		Complexity:   t.complexity,
	}
}

// extractModuleUnit tokenizes module-level statements, descending past
// definition headers without entering their bodies. Returns nil when
// the file is definitions only.
func (e *Extractor) extractModuleUnit(root *sitter.Node, source []byte, filePath string) *domain.CodeUnit {
	t := newTokenizer(source)
	t.tokenizeChildren(root, false)
	if !hasNonHeaderTokens(t.tokens) {
		return nil
	}

	name := strings.TrimSuffix(filepath.Base(filePath), ".py")
	return &domain.CodeUnit{
		Name:   name,
		Kind:   domain.UnitKindModule,
		Tokens: t.tokens,
		Location: domain.UnitLocation{
			FilePath:  filePath,
			StartLine: int(root.StartPoint().Row) + 1,
			EndLine:   int(root.EndPoint().Row) + 1,
		},
		Dependencies: t.dependencies(),
		Complexity:   t.complexity,
	}
}

// hasNonHeaderTokens reports whether the stream carries anything beyond
// definition headers. A file of bare definitions has no module-level
// structure worth registering.
func hasNonHeaderTokens(tokens []string) bool {
	for _, token := range tokens {
		if token != "CLASS" && !strings.HasPrefix(token, "FUNC:") {
			return true
		}
	}
	return false
}

// tokenizer accumulates the structural token stream for one subtree.
type tokenizer struct {
	source     []byte
	tokens     []string
	complexity int
	deps       map[string]bool
}

func newTokenizer(source []byte) *tokenizer {
	return &tokenizer{source: source, complexity: 1, deps: make(map[string]bool)}
}

// tokenizeChildren walks a node's children emitting tokens. When
// enterDefinitions is false, nested function and class definitions
// contribute only their header token.
func (t *tokenizer) tokenizeChildren(node *sitter.Node, enterDefinitions bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		t.tokenize(node.Child(i), enterDefinitions)
	}
}

func (t *tokenizer) tokenize(node *sitter.Node, enterDefinitions bool) {
	switch node.Type() {
	case "function_definition", "class_definition":
		t.tokens = append(t.tokens, definitionToken(node))
		if !enterDefinitions {
			return
		}
	case "if_statement":
		t.emitBranch("IF")
	case "elif_clause":
		t.emitBranch("ELIF")
	case "else_clause":
		t.tokens = append(t.tokens, "ELSE")
	case "for_statement":
		t.emitBranch("LOOP")
	case "while_statement":
		t.emitBranch("WHILE")
	case "try_statement":
		t.tokens = append(t.tokens, "TRY")
	case "except_clause":
		t.emitBranch("EXCEPT")
	case "finally_clause":
		t.tokens = append(t.tokens, "FINALLY")
	case "with_statement":
		t.tokens = append(t.tokens, "WITH")
	case "return_statement":
		t.tokens = append(t.tokens, "RET")
	case "raise_statement":
		t.tokens = append(t.tokens, "RAISE")
	case "yield":
		t.tokens = append(t.tokens, "YIELD")
	case "lambda":
		t.tokens = append(t.tokens, "LAMBDA")
	case "assignment", "augmented_assignment":
		t.tokens = append(t.tokens, "ASSIGN")
	case "import_statement", "import_from_statement":
		t.tokens = append(t.tokens, "IMPORT")
		t.recordImports(node)
	case "call":
		name := calleeName(node, t.source)
		t.tokens = append(t.tokens, "CALL:"+name)
		if name != "" {
			t.deps[name] = true
		}
	case "binary_operator", "comparison_operator", "unary_operator":
		t.tokens = append(t.tokens, "OP:"+operatorText(node, t.source))
	case "boolean_operator":
		t.emitBranch("OP:" + operatorText(node, t.source))
	}

	t.tokenizeChildren(node, enterDefinitions)
}

func (t *tokenizer) emitBranch(token string) {
	t.tokens = append(t.tokens, token)
	t.complexity++
}

func (t *tokenizer) recordImports(node *sitter.Node) {
	walk(node, func(n *sitter.Node) bool {
		if n.Type() == "dotted_name" {
			t.deps[n.Content(t.source)] = true
			return false
		}
		return true
	})
}

func (t *tokenizer) dependencies() []string {
	if len(t.deps) == 0 {
		return nil
	}
	deps := make([]string, 0, len(t.deps))
	for dep := range t.deps {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

// definitionToken is the header token of a definition: functions carry
// their arity, classes their base count, so signature changes shift the
// token stream.
func definitionToken(node *sitter.Node) string {
	if node.Type() == "class_definition" {
		return "CLASS"
	}

	arity := 0
	if params := node.ChildByFieldName("parameters"); params != nil {
		arity = int(params.NamedChildCount())
	}
	return fmt.Sprintf("FUNC:%d", arity)
}

func definitionName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return name.Content(source)
	}
	return "<anonymous>"
}

// calleeName resolves the called name of a call expression: plain
// identifiers directly, attribute calls by their final attribute.
func calleeName(node *sitter.Node, source []byte) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}

	switch fn.Type() {
	case "identifier":
		return fn.Content(source)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return attr.Content(source)
		}
	}
	return ""
}

// operatorText finds the operator symbol among a node's anonymous
// children.
func operatorText(node *sitter.Node, source []byte) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return op.Content(source)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !child.IsNamed() {
			return child.Content(source)
		}
	}
	return "?"
}

// walk traverses the subtree depth first. The visitor returns false to
// skip a node's children.
func walk(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if !visitor(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), visitor)
	}
}
