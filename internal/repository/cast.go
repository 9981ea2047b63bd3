package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"

	"product-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// productPaths is the schema order used when reporting several fields.
var productPaths = []string{"_id", "name", "description", "price"}

// castFailure is a value that could not be converted to the type of its path.
type castFailure struct {
	path      string
	castTo    string
	value     string
	valueType string
}

// CastProduct converts a decoded request body into a Product the way the
// document mapper does: numbers and booleans become strings on string paths,
// numeric strings become numbers on price, unknown fields are dropped. Values
// that cannot be converted are reported together with any missing required
// field as a *ValidationError.
func CastProduct(fields map[string]json.RawMessage) (*model.Product, error) {
	p := &model.Product{}
	var failures []castFailure

	for path, raw := range fields {
		var err *castFailure
		switch path {
		case "_id":
			var oid primitive.ObjectID
			oid, err = castObjectID(path, raw)
			p.ID = oid
		case "name":
			p.Name, err = castString(path, raw)
		case "description":
			p.Description, err = castString(path, raw)
		case "price":
			p.Price, err = castNumber(path, raw)
		}
		if err != nil {
			failures = append(failures, *err)
		}
	}
	if len(failures) == 0 {
		return p, nil
	}

	verr := &ValidationError{Model: productModelName}
	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.path] = true
		verr.Fields = append(verr.Fields, FieldError{
			Path:      f.path,
			Kind:      "cast",
			CastTo:    f.castTo,
			Value:     f.value,
			ValueType: f.valueType,
		})
	}
	var required *ValidationError
	if err := validateProduct(p); errors.As(err, &required) {
		for _, fe := range required.Fields {
			if !failed[fe.Path] {
				verr.Fields = append(verr.Fields, fe)
			}
		}
	}
	slices.SortStableFunc(verr.Fields, func(a, b FieldError) int {
		return slices.Index(productPaths, a.Path) - slices.Index(productPaths, b.Path)
	})
	return nil, verr
}

// CastProductUpdate converts a decoded update body. _id and unknown fields are
// ignored, null leaves a field untouched, and the first value that cannot be
// converted is returned as a *CastError.
func CastProductUpdate(fields map[string]json.RawMessage) (model.ProductUpdate, error) {
	var u model.ProductUpdate
	for _, path := range productPaths {
		raw, ok := fields[path]
		if !ok || isNull(raw) {
			continue
		}

		var err *castFailure
		switch path {
		case "name":
			var v string
			v, err = castString(path, raw)
			u.Name = &v
		case "description":
			var v string
			v, err = castString(path, raw)
			u.Description = &v
		case "price":
			u.Price, err = castNumber(path, raw)
		}
		if err != nil {
			return model.ProductUpdate{}, &CastError{
				Model:     productModelName,
				Path:      err.path,
				Value:     err.value,
				Kind:      err.castTo,
				ValueType: err.valueType,
			}
		}
	}
	return u, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// jsonType names the JSON type of raw as the document mapper reports it.
func jsonType(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "undefined"
	}
	switch raw[0] {
	case '"':
		return "string"
	case '{':
		return "Object"
	case '[':
		return "Array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	return "number"
}

func failure(path, castTo string, raw json.RawMessage) *castFailure {
	f := &castFailure{path: path, castTo: castTo, valueType: jsonType(raw)}
	if f.valueType == "string" {
		_ = json.Unmarshal(raw, &f.value)
	} else {
		f.value = string(bytes.TrimSpace(raw))
	}
	return f
}

func castString(path string, raw json.RawMessage) (string, *castFailure) {
	switch jsonType(raw) {
	case "string":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", failure(path, "string", raw)
		}
		return s, nil
	case "number":
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return "", failure(path, "string", raw)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case "boolean":
		return string(bytes.TrimSpace(raw)), nil
	case "null":
		return "", nil
	}
	return "", failure(path, "string", raw)
}

func castNumber(path string, raw json.RawMessage) (*float64, *castFailure) {
	var f float64
	switch jsonType(raw) {
	case "number":
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, failure(path, "Number", raw)
		}
	case "string":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, failure(path, "Number", raw)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, failure(path, "Number", raw)
		}
		f = v
	case "boolean":
		if string(bytes.TrimSpace(raw)) == "true" {
			f = 1
		}
	case "null":
		return nil, nil
	default:
		return nil, failure(path, "Number", raw)
	}
	return &f, nil
}

func castObjectID(path string, raw json.RawMessage) (primitive.ObjectID, *castFailure) {
	switch jsonType(raw) {
	case "null":
		return primitive.NilObjectID, nil
	case "string":
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if oid, err := primitive.ObjectIDFromHex(s); err == nil {
				return oid, nil
			}
		}
	}
	return primitive.NilObjectID, failure(path, "ObjectId", raw)
}
