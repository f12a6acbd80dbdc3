package engine

import (
	"context"
	"fmt"
)

// PageLoader loads a page in a real browser. *Browser implements it.
type PageLoader interface {
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// RodEngine renders pages in headless Chrome. The stealth variant always
// injects the stealth script, for sites that block automation.
type RodEngine struct {
	loader       PageLoader
	forceStealth bool
	name         string
}

// NewRodEngine creates a RodEngine named "rod", or "rod-stealth" when
// forceStealth is set.
func NewRodEngine(loader PageLoader, forceStealth bool) *RodEngine {
	name := "rod"
	if forceStealth {
		name = "rod-stealth"
	}
	return &RodEngine{
		loader:       loader,
		forceStealth: forceStealth,
		name:         name,
	}
}

func (e *RodEngine) Name() string { return e.name }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.loader == nil {
		return nil, fmt.Errorf("%s: no browser configured", e.name)
	}

	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	result, err := e.loader.Fetch(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	result.EngineName = e.name
	return result, nil
}
