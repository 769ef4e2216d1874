// Package query implements the defensive DOM access every site adapter goes
// through. Reads never fail: a missing element, an extractor that panics, or
// an extracted value meaning "not rendered yet" all produce the caller's
// default. Writes are guarded no-ops when their target is absent.
package query

import (
	"log"
	"reflect"

	"github.com/vrsandeep/nowplaying-go/internal/dom"
)

// Select finds the first element matching selector and returns extract(el).
// It returns def when nothing matches, when extract panics, or when the
// result is unset (see IsUnset).
func Select[T comparable](doc dom.Document, selector string, extract func(dom.Element) T, def T) T {
	v, _ := selectFound(doc, selector, extract, def)
	return v
}

// SelectReport behaves like Select and additionally reports a missing
// element to r under key. Reporting never changes the returned value.
func SelectReport[T comparable](doc dom.Document, r *Reporter, selector string, extract func(dom.Element) T, def T, key string) T {
	v, found := selectFound(doc, selector, extract, def)
	if !found {
		r.Report(key, selector)
	}
	return v
}

// Event runs action on the first element matching selector and reports
// whether the element was found.
func Event(doc dom.Document, selector string, action func(dom.Element)) bool {
	el := doc.Query(selector)
	if el == nil {
		return false
	}
	return guard(selector, func() { action(el) })
}

// EventReport behaves like Event and reports a missing element to r.
func EventReport(doc dom.Document, r *Reporter, selector string, action func(dom.Element), key string) bool {
	ok := Event(doc, selector, action)
	if !ok {
		r.Report(key, selector)
	}
	return ok
}

// Value applies the same fallback rules as Select to an element the caller
// already holds, which is how adapters read a lazily located media element.
func Value[T comparable, E any](el E, present bool, extract func(E) T, def T) T {
	if !present {
		return def
	}
	var result T
	var panicked bool
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[query] extractor panic: %v", rec)
				panicked = true
			}
		}()
		result = extract(el)
	}()
	if panicked || IsUnset(result) {
		return def
	}
	return result
}

// IsUnset reports whether an extracted value means "no data yet". Only empty
// strings (including string-based enums) qualify: on these sites an empty
// field and a field that has not rendered yet are indistinguishable. Zero
// numbers and false are genuine values, so a muted volume of 0 or a disabled
// shuffle of false is returned as is.
func IsUnset[T comparable](v T) bool {
	var zero T
	if v != zero {
		return false
	}
	return reflect.ValueOf(&v).Elem().Kind() == reflect.String
}

func selectFound[T comparable](doc dom.Document, selector string, extract func(dom.Element) T, def T) (T, bool) {
	el := doc.Query(selector)
	if el == nil {
		return def, false
	}
	return Value(el, true, extract, def), true
}

func guard(selector string, fn func()) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[query] action on %q panicked: %v", selector, rec)
			ok = false
		}
	}()
	fn()
	return true
}

// SelectMedia is SelectReport for a <video> or <audio> element. An element
// that matches selector but is not a media element counts as missing. Pass a
// nil reporter for media that is legitimately optional.
func SelectMedia[T comparable](doc dom.Document, r *Reporter, selector string, extract func(dom.Media) T, def T, key string) T {
	m := dom.AsMedia(doc.Query(selector))
	if m == nil {
		r.Report(key, selector)
		return def
	}
	return Value(m, true, extract, def)
}

// MediaEvent is EventReport for a <video> or <audio> element.
func MediaEvent(doc dom.Document, r *Reporter, selector string, action func(dom.Media), key string) bool {
	m := dom.AsMedia(doc.Query(selector))
	if m == nil {
		r.Report(key, selector)
		return false
	}
	return guard(selector, func() { action(m) })
}
