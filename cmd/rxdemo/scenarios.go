package main

import (
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/kbukum/rxkit/logger"
	"github.com/kbukum/rxkit/reactive"
)

type scenario struct {
	name       string
	input      int
	transforms []string
	want       int
}

var referenceScenarios = []scenario{
	{name: "double 5", input: 5, transforms: []string{"double"}, want: 10},
	{name: "double 7", input: 7, transforms: []string{"double"}, want: 14},
	{name: "double then inc", input: 3, transforms: []string{"double", "inc"}, want: 7},
}

// runScenarios checks that each scenario emits exactly its expected value and
// finishes. Every mismatch is reported.
func runScenarios(scenarios []scenario, log *logger.Logger) error {
	var errs []error
	for _, sc := range scenarios {
		if err := sc.check(); err != nil {
			log.Error("scenario failed", logger.Fields("scenario", sc.name, logger.FieldError, err.Error()))
			errs = append(errs, err)
			continue
		}
		log.Info("scenario passed", logger.Fields("scenario", sc.name, logger.FieldValue, sc.want))
	}
	return stderrors.Join(errs...)
}

func (sc scenario) check() error {
	p, err := buildPipeline(StreamConfig{Values: []int{sc.input}, Transforms: sc.transforms}, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", sc.name, err)
	}
	values, comp, done := reactive.Collect(p)
	if !done || !comp.IsFinished() {
		return fmt.Errorf("%s: expected finished, got %v", sc.name, comp)
	}
	if !slices.Equal(values, []int{sc.want}) {
		return fmt.Errorf("%s: got %v, want [%d]", sc.name, values, sc.want)
	}
	return nil
}
