package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	AuthenticateAs(principal string)
	AuthenticateAsAdmin()
	Anonymous()
	Authorize(principal string)
	AdvanceHeight(blocks uint64)
	StatusCode() int
	ResponseBody() []byte
	ResponseField(field string) (any, error)
}

// RegisterSteps registers identity, chain and response assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^"([^"]*)" is an authorized manufacturer$`, steps.authorizedManufacturer)
	ctx.Step(`^I am authenticated as "([^"]*)"$`, steps.authenticateAs)
	ctx.Step(`^I am the registry administrator$`, steps.administrator)
	ctx.Step(`^I am not authenticated$`, steps.anonymous)
	ctx.Step(`^(\d+) blocks? (?:are|is) produced$`, steps.produceBlocks)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the error kind should be "([^"]*)"$`, steps.errorKindShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) authorizedManufacturer(ctx context.Context, principal string) error {
	s.tc.Authorize(principal)
	return nil
}

func (s *commonSteps) authenticateAs(ctx context.Context, principal string) error {
	s.tc.AuthenticateAs(principal)
	return nil
}

func (s *commonSteps) administrator(ctx context.Context) error {
	s.tc.AuthenticateAsAdmin()
	return nil
}

func (s *commonSteps) anonymous(ctx context.Context) error {
	s.tc.Anonymous()
	return nil
}

func (s *commonSteps) produceBlocks(ctx context.Context, blocks int) error {
	s.tc.AdvanceHeight(uint64(blocks))
	return nil
}

func (s *commonSteps) statusShouldBe(ctx context.Context, status int) error {
	if got := s.tc.StatusCode(); got != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, got, s.tc.ResponseBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, want string) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprintf("%v", v); got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) errorKindShouldBe(ctx context.Context, kind string) error {
	return s.fieldShouldBe(ctx, "error_kind", kind)
}
