// Package svg rewrites the fill and stroke presentation properties of an
// SVG document's shape elements. The transform is rule-driven: each rule
// names a style property, a replacement value, and a predicate deciding
// whether the current value may be overwritten. Everything else in the
// document (structure, other style properties, non-shape elements) passes
// through untouched.
package svg

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/iconcommons/iconcommons-server/internal/errors"
)

// shapeTags are the SVG element names subject to the style rewrite.
var shapeTags = map[string]bool{
	"path":     true,
	"polygon":  true,
	"circle":   true,
	"ellipse":  true,
	"rect":     true,
	"line":     true,
	"polyline": true,
}

// Options carries the requested replacements. Empty fields mean "leave the
// property alone".
type Options struct {
	Fill   string
	Stroke string
}

// IsZero reports whether no replacement was requested.
func (o Options) IsZero() bool {
	return o.Fill == "" && o.Stroke == ""
}

// rule is one property rewrite: overwrite property with value when the
// predicate accepts the element's current declaration.
type rule struct {
	property string
	value    string
	// when decides eligibility given the current value and whether the
	// property is declared at all.
	when func(current string, declared bool) bool
}

// fillEligible implements the conditional fill policy: a missing declaration
// is eligible, and declared values are eligible unless they are "none" or
// "#ffffff" (case-insensitively). White and invisible fills are treated as
// intentional and preserved.
func fillEligible(current string, declared bool) bool {
	if !declared {
		return true
	}
	v := strings.ToLower(strings.TrimSpace(current))
	return v != "none" && v != "#ffffff"
}

// strokeEligible implements the unconditional stroke policy.
func strokeEligible(string, bool) bool {
	return true
}

// rules expands the options into the rule list applied to each shape element.
func (o Options) rules() []rule {
	var rules []rule
	if o.Fill != "" {
		rules = append(rules, rule{property: "fill", value: o.Fill, when: fillEligible})
	}
	if o.Stroke != "" {
		rules = append(rules, rule{property: "stroke", value: o.Stroke, when: strokeEligible})
	}
	return rules
}

// ApplyStyle parses doc as XML, rewrites fill/stroke on shape elements
// according to opts, and serializes the result. With zero options the
// document is returned as a plain parse/serialize round trip.
// Returns errors.ErrMalformedInput when doc is not well-formed XML.
func ApplyStyle(doc []byte, opts Options) ([]byte, error) {
	d := etree.NewDocument()
	if err := d.ReadFromBytes(doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeMalformedInput, "parse svg document")
	}
	if d.Root() == nil {
		return nil, errors.MalformedInput("svg document has no root element")
	}

	if rules := opts.rules(); len(rules) > 0 {
		applyToTree(d.Root(), rules)
	}

	out, err := d.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "serialize svg document")
	}
	return out, nil
}

// applyToTree walks the element tree, rewriting every shape element.
func applyToTree(el *etree.Element, rules []rule) {
	if shapeTags[el.Tag] {
		applyToElement(el, rules)
	}
	for _, child := range el.ChildElements() {
		applyToTree(child, rules)
	}
}

// applyToElement rewrites one shape element. Declarations in a style
// attribute win over bare presentation attributes; when no style attribute
// exists but bare fill/stroke attributes do, the policy is applied to the
// attributes directly.
func applyToElement(el *etree.Element, rules []rule) {
	if style := el.SelectAttr("style"); style != nil {
		el.CreateAttr("style", rewriteStyle(style.Value, rules))
		return
	}

	if el.SelectAttr("fill") != nil || el.SelectAttr("stroke") != nil {
		for _, r := range rules {
			attr := el.SelectAttr(r.property)
			current, declared := "", false
			if attr != nil {
				current, declared = attr.Value, true
			}
			if r.when(current, declared) {
				el.CreateAttr(r.property, r.value)
			}
		}
		return
	}

	// Nothing declared anywhere: introduce a style attribute.
	el.CreateAttr("style", rewriteStyle("", rules))
}

// declaration is one property:value pair from a style attribute.
type declaration struct {
	property string
	value    string
}

// parseStyle splits a style attribute into its declarations, preserving
// order. Malformed fragments without a colon are dropped, matching browser
// behavior.
func parseStyle(style string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(style, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		property, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		decls = append(decls, declaration{
			property: strings.TrimSpace(property),
			value:    strings.TrimSpace(value),
		})
	}
	return decls
}

// rewriteStyle applies the rules to a style attribute value. Untouched
// declarations keep their relative order; properties introduced by a rule
// are appended.
func rewriteStyle(style string, rules []rule) string {
	decls := parseStyle(style)

	for _, r := range rules {
		found := false
		for n := range decls {
			if strings.EqualFold(decls[n].property, r.property) {
				found = true
				if r.when(decls[n].value, true) {
					decls[n].value = r.value
				}
				break
			}
		}
		if !found && r.when("", false) {
			decls = append(decls, declaration{property: r.property, value: r.value})
		}
	}

	parts := make([]string, len(decls))
	for n, d := range decls {
		parts[n] = d.property + ":" + d.value
	}
	return strings.Join(parts, ";")
}
