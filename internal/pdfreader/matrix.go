package pdfreader

import "github.com/inklutec/accesspdf/internal/geom"

// matrix is a PDF content-stream transformation matrix [a b c d e f],
// mapping (x,y) -> (a*x+c*y+e, b*x+d*y+f).
type matrix struct{ a, b, c, d, e, f float64 }

func identity() matrix { return matrix{1, 0, 0, 1, 0, 0} }

// concat returns m2 prepended by m1, i.e. the matrix a "cm" operator with
// operands m1 produces when the current matrix is m2 (cm right-multiplies
// in PDF's row-vector convention).
func concat(m1, m2 matrix) matrix {
	return matrix{
		a: m1.a*m2.a + m1.b*m2.c,
		b: m1.a*m2.b + m1.b*m2.d,
		c: m1.c*m2.a + m1.d*m2.c,
		d: m1.c*m2.b + m1.d*m2.d,
		e: m1.e*m2.a + m1.f*m2.c + m2.e,
		f: m1.e*m2.b + m1.f*m2.d + m2.f,
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m.a*x + m.c*y + m.e, m.b*x + m.d*y + m.f
}

// unitSquareRect returns the bounding box of the unit square transformed by m.
func unitSquareRect(m matrix) geom.Rect {
	x0, y0 := m.apply(0, 0)
	x1, y1 := m.apply(1, 0)
	x2, y2 := m.apply(0, 1)
	x3, y3 := m.apply(1, 1)
	r := geom.NewRect(x0, y0, x0, y0)
	for _, p := range [][2]float64{{x1, y1}, {x2, y2}, {x3, y3}} {
		r = r.Union(geom.NewRect(p[0], p[1], p[0], p[1]))
	}
	return r
}
