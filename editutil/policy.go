/*
Copyright © 2021 the VectorEdit authors.
This file is part of VectorEdit.

VectorEdit is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

VectorEdit is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with VectorEdit.  If not, see <http://www.gnu.org/licenses/>.
*/

package editutil

import (
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/spatialkit/vectoredit"
)

// A scriptPolicy is the edit policy a replay script describes. It
// commits accepted geometry changes back to the data source, removes
// deleted elements, and answers every drag callback from, in order of
// precedence: the fixed override sequence, the policy expression, and
// the per-phase default results.
type scriptPolicy struct {
	ds  *vectoredit.DataSource
	log logrus.FieldLogger

	styleNormal   *vectoredit.PointStyle
	styleVirtual  *vectoredit.PointStyle
	styleSelected *vectoredit.PointStyle

	start vectoredit.DragResult
	move  vectoredit.DragResult
	end   vectoredit.DragResult
	expr  *govaluate.EvaluableExpression

	mu        sync.Mutex
	overrides []vectoredit.DragResult
	next      int
	modified  int
	deleted   int
	err       error
}

// newScriptPolicy builds the policy from the script's policy block
// and the command line's override sequence.
func newScriptPolicy(ds *vectoredit.DataSource, spec PolicySpec, overrides []string) (*scriptPolicy, error) {
	p := &scriptPolicy{
		ds:  ds,
		log: logrus.StandardLogger(),
		styleNormal: &vectoredit.PointStyle{
			Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}, Size: 12, ClickSize: 16,
		},
		styleVirtual: &vectoredit.PointStyle{
			Color: color.RGBA{R: 160, G: 160, B: 160, A: 255}, Size: 10, ClickSize: 16,
		},
		styleSelected: &vectoredit.PointStyle{
			Color: color.RGBA{R: 255, G: 64, B: 64, A: 255}, Size: 14, ClickSize: 16,
		},
	}
	base := vectoredit.DragResultModify
	var err error
	if spec.Result != "" {
		if base, err = parseDragResult(spec.Result); err != nil {
			return nil, err
		}
	}
	p.start, p.move, p.end = base, base, base
	if spec.Start != "" {
		if p.start, err = parseDragResult(spec.Start); err != nil {
			return nil, err
		}
	}
	if spec.Move != "" {
		if p.move, err = parseDragResult(spec.Move); err != nil {
			return nil, err
		}
	}
	if spec.End != "" {
		if p.end, err = parseDragResult(spec.End); err != nil {
			return nil, err
		}
	}
	if spec.Expr != "" {
		p.expr, err = govaluate.NewEvaluableExpressionWithFunctions(spec.Expr, policyFunctions())
		if err != nil {
			return nil, fmt.Errorf("vectoredit: problem parsing policy expression: %v", err)
		}
	}
	for _, s := range overrides {
		r, err := parseDragResult(s)
		if err != nil {
			return nil, err
		}
		p.overrides = append(p.overrides, r)
	}
	return p, nil
}

// policyFunctions returns the functions available to policy
// expressions:
//
// 'abs(x)' which gives the absolute value of x.
//
// 'dist(x1, y1, x2, y2)' which gives the distance between two
// positions.
func policyFunctions() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("vectoredit: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return math.Abs(arg[0].(float64)), nil
		},
		"dist": func(args ...interface{}) (interface{}, error) {
			if len(args) != 4 {
				return nil, fmt.Errorf("vectoredit: got %d arguments for function 'dist', but needs 4", len(args))
			}
			return math.Hypot(args[2].(float64)-args[0].(float64), args[3].(float64)-args[1].(float64)), nil
		},
	}
}

// decide answers one drag callback. Expression failures stop the
// gesture and are reported once the replay finishes.
func (p *scriptPolicy) decide(action string, phase vectoredit.DragResult, info vectoredit.DragInfo) vectoredit.DragResult {
	p.mu.Lock()
	if p.next < len(p.overrides) {
		r := p.overrides[p.next]
		p.next++
		p.mu.Unlock()
		return r
	}
	p.mu.Unlock()
	if p.expr == nil {
		return phase
	}
	out, err := p.expr.Evaluate(map[string]interface{}{
		"mode":    info.Mode.String(),
		"action":  action,
		"x":       info.MapPos.X,
		"y":       info.MapPos.Y,
		"screenX": info.ScreenPos.X,
		"screenY": info.ScreenPos.Y,
	})
	if err != nil {
		p.fail(fmt.Errorf("vectoredit: problem evaluating policy expression: %v", err))
		return vectoredit.DragResultStop
	}
	switch v := out.(type) {
	case bool:
		if v {
			return phase
		}
		return vectoredit.DragResultIgnore
	case string:
		r, err := parseDragResult(v)
		if err != nil {
			p.fail(err)
			return vectoredit.DragResultStop
		}
		return r
	}
	p.fail(fmt.Errorf("vectoredit: policy expression returned %T, want bool or string", out))
	return vectoredit.DragResultStop
}

func (p *scriptPolicy) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

// Err returns the first expression failure, if any.
func (p *scriptPolicy) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *scriptPolicy) counts() (modified, deleted int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modified, p.deleted
}

func (p *scriptPolicy) OnElementSelect(e *vectoredit.Element) bool {
	p.log.WithFields(logrus.Fields{"element": e.ID()}).Debug("select element")
	return true
}

func (p *scriptPolicy) OnElementDeselected(e *vectoredit.Element) {
	p.log.WithFields(logrus.Fields{"element": e.ID()}).Debug("deselect element")
}

func (p *scriptPolicy) OnDragPointStyle(e *vectoredit.Element, s vectoredit.DragPointStyle) *vectoredit.PointStyle {
	switch s {
	case vectoredit.DragPointStyleVirtual:
		return p.styleVirtual
	case vectoredit.DragPointStyleSelected:
		return p.styleSelected
	}
	return p.styleNormal
}

func (p *scriptPolicy) OnDragStart(info vectoredit.DragInfo) vectoredit.DragResult {
	r := p.decide("start", p.start, info)
	p.logDrag("drag start", info, r)
	return r
}

func (p *scriptPolicy) OnDragMove(info vectoredit.DragInfo) vectoredit.DragResult {
	r := p.decide("move", p.move, info)
	p.logDrag("drag move", info, r)
	return r
}

func (p *scriptPolicy) OnDragEnd(info vectoredit.DragInfo) vectoredit.DragResult {
	r := p.decide("end", p.end, info)
	p.logDrag("drag end", info, r)
	return r
}

func (p *scriptPolicy) logDrag(msg string, info vectoredit.DragInfo, r vectoredit.DragResult) {
	p.log.WithFields(logrus.Fields{
		"mode":   info.Mode.String(),
		"x":      info.MapPos.X,
		"y":      info.MapPos.Y,
		"result": r.String(),
	}).Debug(msg)
}

func (p *scriptPolicy) OnElementModify(e *vectoredit.Element, g geom.Geom) {
	e.SetGeometry(g)
	p.mu.Lock()
	p.modified++
	p.mu.Unlock()
	p.log.WithFields(logrus.Fields{"element": e.ID()}).Debug("modify element")
}

func (p *scriptPolicy) OnElementDelete(e *vectoredit.Element) {
	p.ds.Remove(e)
	p.mu.Lock()
	p.deleted++
	p.mu.Unlock()
	p.log.WithFields(logrus.Fields{"element": e.ID()}).Debug("delete element")
}
