package align

import (
	"slices"

	"github.com/beevik/etree"
)

// Attributes are matched by local name, namespace prefix is ignored.

func attrIndex(el *etree.Element, key string) int {
	return slices.IndexFunc(el.Attr, func(a etree.Attr) bool {
		return a.Key == key
	})
}

func findAttr(el *etree.Element, key string) *etree.Attr {
	if i := attrIndex(el, key); i >= 0 {
		return &el.Attr[i]
	}
	return nil
}

func setAttr(el *etree.Element, key, value string) {
	if a := findAttr(el, key); a != nil {
		a.Value = value
		return
	}
	el.CreateAttr(key, value)
}

func removeAttr(el *etree.Element, i int) {
	el.Attr = slices.Delete(el.Attr, i, i+1)
}
