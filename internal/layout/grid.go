package layout

// Padding - отступ между кнопками в пикселях
const Padding = 4

type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Placed - кнопка с координатами на экране
type Placed struct {
	Button
	Rect Rect
}

// Frame - размещение дисплея и кнопок в окне
type Frame struct {
	Display Rect
	Buttons []Placed
}

// Grid раскладывает дисплей (верхний ряд) и кнопки по окну width x height
func (l *Layout) Grid(width, height int) Frame {
	cols := l.Columns
	rows := l.Rows() + 1
	cellW := (width - Padding*(cols+1)) / cols
	cellH := (height - Padding*(rows+1)) / rows

	f := Frame{
		Display: Rect{X: Padding, Y: Padding, W: width - 2*Padding, H: cellH},
	}
	for _, b := range l.Buttons {
		f.Buttons = append(f.Buttons, Placed{
			Button: b,
			Rect: Rect{
				X: Padding + b.Col*(cellW+Padding),
				Y: Padding + (b.Row+1)*(cellH+Padding),
				W: b.Span*cellW + (b.Span-1)*Padding,
				H: cellH,
			},
		})
	}
	return f
}

// HitTest ищет кнопку под точкой (x, y)
func (f Frame) HitTest(x, y int) (Button, bool) {
	for _, p := range f.Buttons {
		if p.Rect.Contains(x, y) {
			return p.Button, true
		}
	}
	return Button{}, false
}
