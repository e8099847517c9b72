// Package repository stores articles and projects in MongoDB. Each call asks
// the gateway for its collection, so the first request after start-up is
// the one that connects.
package repository

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"portfolio-service/model"
)

const (
	ArticlesCollection = "articles"
	ProjectsCollection = "projects"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateSlug = errors.New("slug already exists")
	ErrInvalidID     = fmt.Errorf("invalid id: %w", ErrNotFound)
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var (
	validate  = newValidator()
	sanitizer = newSanitizer()
)

// PrepareArticle sanitizes the body, fills defaults and validates a. Stores
// call it before every write.
func PrepareArticle(a *model.Article) error {
	a.Content = sanitizer.Sanitize(a.Content)
	if a.Status == "" {
		a.Status = model.StatusDraft
	}
	a.Tags = nonNil(a.Tags)
	return validateStruct(validate, a)
}

func PrepareProject(p *model.Project) error {
	p.LongDescription = sanitizer.Sanitize(p.LongDescription)
	if p.Status == "" {
		p.Status = model.StatusDraft
	}
	p.Features = nonNil(p.Features)
	p.Technologies.Languages = nonNil(p.Technologies.Languages)
	p.Technologies.Frameworks = nonNil(p.Technologies.Frameworks)
	p.Technologies.Databases = nonNil(p.Technologies.Databases)
	p.Technologies.Tools = nonNil(p.Technologies.Tools)
	return validateStruct(validate, p)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ValidationError carries one message per offending field, keyed by the
// field's JSON path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})

	return v
}

func validateStruct(v *validator.Validate, doc any) error {
	err := v.Struct(doc)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate document: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the root type name: "Project.sourceUrls.github" -> "sourceUrls.github".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "slug":
		return "must contain only lowercase letters, digits and single hyphens"
	case "url":
		return "must be a valid URL"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gtefield":
		return "must not be before " + lowerFirst(fe.Param())
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// newSanitizer allows the markup the rich-text editor produces and strips
// scripts, event handlers and other active content.
func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	return p
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func timestamp(now func() time.Time) time.Time {
	// Mongo stores milliseconds; truncating keeps returned documents equal
	// to what a later read decodes.
	return now().UTC().Truncate(time.Millisecond)
}

// setOrUnset writes value into set, or marks key for removal when empty, so
// optional fields cleared in the form disappear from the document.
func setOrUnset(set, unset bson.M, key, value string) {
	if value == "" {
		unset[key] = ""
		return
	}
	set[key] = value
}

func updateDoc(set, unset bson.M) bson.M {
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func translateWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateSlug
	}
	return err
}

func translateReadError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
