package resource

import (
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"github.com/drblury/mongoweaver/document"
	"github.com/drblury/mongoweaver/query"
	"github.com/drblury/mongoweaver/schema"
)

// HeaderErrorMessage carries the newline separated validation messages of a
// 400 response.
const HeaderErrorMessage = "X-Error-Message"

type publicView interface {
	Public() bson.M
}

// Find lists the documents matching the filter. The page and the total count
// are fetched concurrently.
func Find(c *Context, next Next) error {
	var (
		docs  []bson.M
		count int64
	)
	g, ctx := errgroup.WithContext(c.Context())
	g.Go(func() error {
		var err error
		docs, err = c.Model.Find(ctx, c.Filter, c.Options)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = c.Model.Count(ctx, c.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if docs == nil {
		docs = []bson.M{}
	}

	c.SetCount(count, c.Options.Limit)
	c.Response.Status = http.StatusOK
	c.Response.Body = docs

	if len(docs) > 0 && len(c.Options.Populate) > 0 {
		if err := c.Model.Populate(c.Context(), docs, c.Options.Populate); err != nil {
			return err
		}
	}
	query.OmitDocument(docs, c.Options.Hidden)
	return next()
}

// FindByID fetches one document. A missing document yields 204.
func FindByID(c *Context, next Next) error {
	doc, err := c.Model.FindByID(c.Context(), c.ID(), c.Options.Select)
	if err != nil {
		return err
	}
	if doc == nil {
		c.SetCount(0, 0)
		c.Response.Status = http.StatusNoContent
		c.Response.Body = nil
		return next()
	}

	c.SetCount(1, 0)
	c.Response.Status = http.StatusOK
	c.Response.Body = doc
	if len(c.Options.Populate) > 0 {
		if err := c.Model.Populate(c.Context(), doc, c.Options.Populate); err != nil {
			return err
		}
	}
	query.OmitDocument(doc, c.Options.Hidden)
	return next()
}

// Create builds an unsaved document from the body and answers 201. After the
// rest of the chain ran, the body is saved if it still can be.
func Create(c *Context, next Next) error {
	c.Response.Status = http.StatusCreated
	c.Response.Body = c.Model.New(c.Body)

	if err := next(); err != nil {
		return handleValidationError(c, err)
	}
	return persist(c)
}

// Save updates the document with the given id: PUT overwrites every visible
// field, PATCH sets only the fields present in the body. A missing document
// yields 204 and ends the chain.
func Save(c *Context, next Next) error {
	doc, err := c.Model.FindByIDAndUpdate(c.Context(), c.ID(), c.Body, document.UpdateOptions{
		Overwrite:     c.Request.Method == http.MethodPut,
		RunValidators: true,
		Select:        c.Options.Select,
	})
	if err != nil {
		return handleValidationError(c, err)
	}
	if doc == nil {
		c.Response.Status = http.StatusNoContent
		c.Response.Body = nil
		return nil
	}

	c.Response.Status = http.StatusOK
	c.Response.Body = doc
	if err := next(); err != nil {
		return handleValidationError(c, err)
	}
	return persist(c)
}

// Remove fetches the document with the given id and, after the rest of the
// chain ran, deletes it if the body still can be. A missing document yields
// 204 and ends the chain.
func Remove(c *Context, next Next) error {
	doc, err := c.Model.Get(c.Context(), c.ID(), c.Options.Select)
	if err != nil {
		return err
	}
	if doc == nil {
		c.Response.Status = http.StatusNoContent
		c.Response.Body = nil
		return nil
	}

	c.Response.Status = http.StatusOK
	c.Response.Body = doc
	if err := next(); err != nil {
		return handleValidationError(c, err)
	}
	if remover, ok := c.Response.Body.(document.Remover); ok {
		return remover.Remove(c.Context())
	}
	return nil
}

// persist saves the response body when it is a Saver and replaces it with its
// public view.
func persist(c *Context) error {
	saver, ok := c.Response.Body.(document.Saver)
	if !ok {
		return nil
	}
	if err := saver.Save(c.Context()); err != nil {
		return handleValidationError(c, err)
	}
	if view, ok := saver.(publicView); ok {
		c.Response.Body = view.Public()
	}
	return nil
}

// handleValidationError turns a validation failure into a 400 response and
// passes every other error on.
func handleValidationError(c *Context, err error) error {
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	c.Response.Status = http.StatusBadRequest
	c.Response.Header.Set(HeaderErrorMessage, strings.Join(verr.Messages(), "\n"))
	c.Response.Body = map[string]any{"error": verr}
	return nil
}

func defaultHandler(op Operation) Handler {
	switch op {
	case OpFind:
		return HandlerFunc(Find)
	case OpFindByID:
		return HandlerFunc(FindByID)
	case OpCreate:
		return HandlerFunc(Create)
	case OpSave:
		return HandlerFunc(Save)
	case OpRemove:
		return HandlerFunc(Remove)
	}
	return nil
}
