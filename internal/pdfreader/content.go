package pdfreader

import (
	"strconv"

	"github.com/inklutec/accesspdf/internal/geom"
)

// pathAccumulator tracks the bounding box and operator count of the path
// currently under construction, between the last painting operator and now.
type pathAccumulator struct {
	rect      geom.Rect
	itemCount int
	started   bool
}

func (p *pathAccumulator) addPoint(x, y float64) {
	pt := geom.NewRect(x, y, x, y)
	if !p.started {
		p.rect = pt
		p.started = true
	} else {
		p.rect = p.rect.Union(pt)
	}
}

func (p *pathAccumulator) reset() {
	*p = pathAccumulator{}
}

// scanContent walks a decoded page content stream and returns the vector
// draw items and raster image placements it finds. xobjRefs maps resource
// name -> "id gen" object key (from /Resources/XObject), resolved by the
// caller so this function stays free of object-map lookups.
func scanContent(content []byte, xobjRefs map[string]string) (vectors []VectorItem, imagePlacements map[string][]geom.Rect) {
	imagePlacements = make(map[string][]geom.Rect)
	toks := tokenize(content)

	ctmStack := []matrix{identity()}
	ctm := func() matrix { return ctmStack[len(ctmStack)-1] }

	var operands []float64
	var path pathAccumulator

	flushPath := func(paint bool) {
		if paint && path.started && path.itemCount > 0 && !path.rect.Empty() {
			vectors = append(vectors, VectorItem{Rect: path.rect, ItemCount: path.itemCount})
		}
		path.reset()
	}

	for _, t := range toks {
		switch t.kind {
		case tokNum:
			operands = append(operands, t.num)
		case tokName:
			// names are only meaningful as the operand to Do; stash nothing,
			// tokenize already copied the name onto the Do token (t.name).
		case tokOp:
			switch t.op {
			case "q":
				ctmStack = append(ctmStack, ctm())
			case "Q":
				if len(ctmStack) > 1 {
					ctmStack = ctmStack[:len(ctmStack)-1]
				}
			case "cm":
				if len(operands) >= 6 {
					n := operands[len(operands)-6:]
					m := matrix{n[0], n[1], n[2], n[3], n[4], n[5]}
					ctmStack[len(ctmStack)-1] = concat(m, ctm())
				}
			case "m":
				if len(operands) >= 2 {
					n := operands[len(operands)-2:]
					x, y := ctm().apply(n[0], n[1])
					path.addPoint(x, y)
					path.itemCount++
				}
			case "l":
				if len(operands) >= 2 {
					n := operands[len(operands)-2:]
					x, y := ctm().apply(n[0], n[1])
					path.addPoint(x, y)
					path.itemCount++
				}
			case "c":
				if len(operands) >= 6 {
					n := operands[len(operands)-6:]
					for i := 0; i < 3; i++ {
						x, y := ctm().apply(n[i*2], n[i*2+1])
						path.addPoint(x, y)
					}
					path.itemCount++
				}
			case "v", "y":
				if len(operands) >= 4 {
					n := operands[len(operands)-4:]
					for i := 0; i < 2; i++ {
						x, y := ctm().apply(n[i*2], n[i*2+1])
						path.addPoint(x, y)
					}
					path.itemCount++
				}
			case "re":
				if len(operands) >= 4 {
					n := operands[len(operands)-4:]
					x, y, w, h := n[0], n[1], n[2], n[3]
					corners := [4][2]float64{{x, y}, {x + w, y}, {x, y + h}, {x + w, y + h}}
					for _, c := range corners {
						px, py := ctm().apply(c[0], c[1])
						path.addPoint(px, py)
					}
					path.itemCount++
				}
			case "h":
				// closepath: no new point, part of the current path
			case "f", "F", "f*", "S", "s", "B", "B*", "b", "b*":
				flushPath(true)
			case "n":
				flushPath(false)
			case "Do":
				if t.name != "" {
					if _, ok := xobjRefs[t.name]; ok {
						r := unitSquareRect(ctm())
						imagePlacements[t.name] = append(imagePlacements[t.name], r)
					}
				}
			}
			operands = operands[:0]
		}
	}
	return vectors, imagePlacements
}

type tokKind int

const (
	tokNum tokKind = iota
	tokName
	tokOp
	tokOther
)

type token struct {
	kind tokKind
	num  float64
	name string
	op   string
}

// tokenize is a minimal PDF content-stream lexer: it yields numbers,
// resource names (the leading "/" stripped, matching xobjRefs' keys), and
// bare operator keywords, while skipping over (literal strings), <hex
// strings> and [arrays] whose contents this reader never needs (text
// payload is handled separately by extractPlainText).
func tokenize(content []byte) []token {
	var toks []token
	i, n := 0, len(content)
	isSpace := func(c byte) bool {
		return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
	}
	isDelim := func(c byte) bool {
		switch c {
		case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
			return true
		}
		return false
	}
	for i < n {
		c := content[i]
		switch {
		case isSpace(c):
			i++
		case c == '%':
			for i < n && content[i] != '\n' {
				i++
			}
		case c == '(':
			depth := 1
			i++
			for i < n && depth > 0 {
				if content[i] == '\\' {
					i += 2
					continue
				}
				if content[i] == '(' {
					depth++
				} else if content[i] == ')' {
					depth--
				}
				i++
			}
		case c == '<' && i+1 < n && content[i+1] == '<':
			depth := 1
			i += 2
			for i+1 < n && depth > 0 {
				if content[i] == '<' && content[i+1] == '<' {
					depth++
					i += 2
					continue
				}
				if content[i] == '>' && content[i+1] == '>' {
					depth--
					i += 2
					continue
				}
				i++
			}
		case c == '<':
			i++
			for i < n && content[i] != '>' {
				i++
			}
			i++
		case c == '[':
			depth := 1
			i++
			for i < n && depth > 0 {
				if content[i] == '[' {
					depth++
				} else if content[i] == ']' {
					depth--
				} else if content[i] == '(' {
					for i < n && content[i] != ')' {
						if content[i] == '\\' {
							i++
						}
						i++
					}
				}
				i++
			}
		case c == '/':
			j := i + 1
			for j < n && !isSpace(content[j]) && !isDelim(content[j]) {
				j++
			}
			toks = append(toks, token{kind: tokName, name: string(content[i+1 : j])})
			i = j
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < n && (content[j] == '.' || content[j] == '-' || (content[j] >= '0' && content[j] <= '9')) {
				j++
			}
			if f, err := strconv.ParseFloat(string(content[i:j]), 64); err == nil {
				toks = append(toks, token{kind: tokNum, num: f})
			}
			i = j
		default:
			j := i
			for j < n && !isSpace(content[j]) && !isDelim(content[j]) {
				j++
			}
			if j == i {
				i++
				continue
			}
			op := string(content[i:j])
			if op == "Do" && len(toks) > 0 && toks[len(toks)-1].kind == tokName {
				toks = append(toks, token{kind: tokOp, op: "Do", name: toks[len(toks)-1].name})
			} else {
				toks = append(toks, token{kind: tokOp, op: op})
			}
			i = j
		}
	}
	return toks
}
