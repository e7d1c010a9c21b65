package store

import (
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// matches evaluates filter against doc the way MongoDB does for the subset the
// services use: equality on (dotted) paths and $ne.
func matches(doc Document, filter Filter) bool {
	for path, want := range filter {
		got, ok := lookup(doc, path)
		if cond, isCond := asMap(want); isCond {
			if ne, has := cond["$ne"]; has {
				if ok && equal(got, ne) {
					return false
				}
				continue
			}
		}
		if !ok || !equal(got, want) {
			return false
		}
	}
	return true
}

func lookup(doc Document, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]interface{}:
		return m, true
	}
	return nil, false
}

func equal(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	if oa, ok := a.(primitive.ObjectID); ok {
		ob, ok := b.(primitive.ObjectID)
		return ok && oa == ob
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// clone deep-copies maps and slices so stored documents never alias caller data.
func clone(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.M:
		out := make(bson.M, len(t))
		for k, vv := range t {
			out[k] = clone(vv)
		}
		return out
	case map[string]interface{}:
		out := make(bson.M, len(t))
		for k, vv := range t {
			out[k] = clone(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, vv := range t {
			out[i] = clone(vv)
		}
		return out
	case bson.A:
		out := make(bson.A, len(t))
		for i, vv := range t {
			out[i] = clone(vv)
		}
		return out
	}
	return v
}

func cloneDoc(d Document) Document {
	return clone(d).(bson.M)
}
