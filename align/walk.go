package align

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Result collects everything a walk did to the document.
type Result struct {
	// Targets is number of text elements with alignment encoded in their identifiers.
	Targets int
	Changes []Change
}

// Applied returns number of runs which were re-anchored.
func (r *Result) Applied() int {
	n := 0
	for _, ch := range r.Changes {
		if ch.Skipped == "" {
			n++
		}
	}
	return n
}

// Skipped returns number of runs left untouched because of their structure.
func (r *Result) Skipped() int {
	return len(r.Changes) - r.Applied()
}

// Walk visits every element under root depth first, parent before children,
// in document order and re-anchors runs of alignment bearing text elements.
// Tree topology is never changed, only attributes are. The first malformed
// numeral aborts the walk, tree may be partially modified at this point and
// should be discarded.
func (a *Aligner) Walk(root *etree.Element) (*Result, error) {
	res := &Result{}
	if root == nil {
		return res, nil
	}
	return res, a.walk(root, res)
}

func (a *Aligner) walk(el *etree.Element, res *Result) error {
	if el.Tag == a.textTag {
		if err := a.visitText(el, res); err != nil {
			return err
		}
	}
	for _, tok := range el.Child {
		if child, ok := tok.(*etree.Element); ok {
			if err := a.walk(child, res); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Aligner) visitText(el *etree.Element, res *Result) error {
	id := findAttr(el, "id")
	if id == nil {
		return nil
	}
	align, ok := Classify(id.Value)
	if !ok {
		return nil
	}
	// copy, resolving may shuffle attributes of el
	ident := id.Value
	res.Targets++

	for _, run := range el.ChildElements() {
		if run.Tag != a.runTag {
			continue
		}
		ch, err := a.resolve(el, run, ident, align)
		if err != nil {
			return err
		}
		if ch.Skipped != "" {
			a.log.Warn("Skipping text run", zap.String("reason", string(ch.Skipped)),
				zap.String("path", ch.Path), zap.String("id", ident), zap.Int("children", len(run.Child)))
		}
		res.Changes = append(res.Changes, ch)
	}
	return nil
}
