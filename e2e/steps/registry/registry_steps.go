package registry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"batchledger/internal/registry/models"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	PUT(path string, body any) error
	StatusCode() int
	ResponseField(field string) (any, error)
	RememberBatch(code string, id models.BatchID)
	BatchID(code string) (models.BatchID, error)
	FeeBalance(principal string) decimal.Decimal
	AuthenticateAsAdmin()
}

// RegisterSteps registers batch lifecycle and registry settings steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrySteps{tc: tc}

	ctx.Step(`^the authority gateway "([^"]*)" is configured$`, steps.authorityConfigured)
	ctx.Step(`^I configure the authority gateway "([^"]*)"$`, steps.configureAuthority)
	ctx.Step(`^I set the mint fee to "([^"]*)"$`, steps.setMintFee)

	ctx.Step(`^I mint a batch with code "([^"]*)" expiring at height (\d+)$`, steps.mintBatch)
	ctx.Step(`^I update batch "([^"]*)" to expire at height (\d+) with composition "([^"]*)"$`, steps.updateBatch)
	ctx.Step(`^I transfer batch "([^"]*)" to "([^"]*)"$`, steps.transferBatch)
	ctx.Step(`^I verify batch "([^"]*)"$`, steps.verifyBatch)
	ctx.Step(`^I fetch batch "([^"]*)"$`, steps.fetchBatch)
	ctx.Step(`^I fetch the amendment of batch "([^"]*)"$`, steps.fetchAmendment)
	ctx.Step(`^I request the batch count$`, steps.requestCount)
	ctx.Step(`^I look up the external code "([^"]*)"$`, steps.lookupCode)

	ctx.Step(`^the fee balance of "([^"]*)" should be "([^"]*)"$`, steps.feeBalanceShouldBe)
}

type registrySteps struct {
	tc TestContext
}

// authorityConfigured is a Given: it configures as the administrator and
// fails the scenario if the registry refuses.
func (s *registrySteps) authorityConfigured(ctx context.Context, address string) error {
	s.tc.AuthenticateAsAdmin()
	if err := s.configureAuthority(ctx, address); err != nil {
		return err
	}
	if s.tc.StatusCode() != http.StatusOK {
		return fmt.Errorf("configure authority: status %d", s.tc.StatusCode())
	}
	return nil
}

func (s *registrySteps) configureAuthority(ctx context.Context, address string) error {
	return s.tc.POST("/admin/authority", map[string]string{"address": address})
}

func (s *registrySteps) setMintFee(ctx context.Context, amount string) error {
	return s.tc.PUT("/admin/mint-fee", map[string]string{"amount": amount})
}

func (s *registrySteps) mintBatch(ctx context.Context, code string, expiration int) error {
	body := map[string]any{
		"external_code":      code,
		"expiration_height":  expiration,
		"composition":        "Amoxicillin 500mg",
		"certificate_digest": strings.Repeat("c4", models.DigestSize),
		"drug_type":          "antibiotic",
		"quantity":           1000,
		"dosage":             "500mg",
		"storage_conditions": "below 25C",
		"packaging":          "blister",
		"location":           "warehouse-7",
		"currency":           "USD",
		"batch_number":       1,
	}
	if err := s.tc.POST("/batches", body); err != nil {
		return err
	}
	if s.tc.StatusCode() != http.StatusCreated {
		return nil
	}
	raw, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("parse minted id %v: %w", raw, err)
	}
	s.tc.RememberBatch(code, models.BatchID(id))
	return nil
}

func (s *registrySteps) updateBatch(ctx context.Context, code string, expiration int, composition string) error {
	id, err := s.tc.BatchID(code)
	if err != nil {
		return err
	}
	return s.tc.PUT(fmt.Sprintf("/batches/%d", id), map[string]any{
		"expiration_height": expiration,
		"composition":       composition,
	})
}

func (s *registrySteps) transferBatch(ctx context.Context, code, holder string) error {
	id, err := s.tc.BatchID(code)
	if err != nil {
		return err
	}
	return s.tc.POST(fmt.Sprintf("/batches/%d/transfer", id), map[string]string{"new_holder": holder})
}

func (s *registrySteps) verifyBatch(ctx context.Context, code string) error {
	id, err := s.tc.BatchID(code)
	if err != nil {
		return err
	}
	return s.tc.GET(fmt.Sprintf("/batches/%d/verify", id))
}

func (s *registrySteps) fetchBatch(ctx context.Context, code string) error {
	id, err := s.tc.BatchID(code)
	if err != nil {
		return err
	}
	return s.tc.GET(fmt.Sprintf("/batches/%d", id))
}

func (s *registrySteps) fetchAmendment(ctx context.Context, code string) error {
	id, err := s.tc.BatchID(code)
	if err != nil {
		return err
	}
	return s.tc.GET(fmt.Sprintf("/batches/%d/amendment", id))
}

func (s *registrySteps) requestCount(ctx context.Context) error {
	return s.tc.GET("/batches/count")
}

func (s *registrySteps) lookupCode(ctx context.Context, code string) error {
	return s.tc.GET("/batches/codes/" + code)
}

func (s *registrySteps) feeBalanceShouldBe(ctx context.Context, principal, want string) error {
	expected, err := decimal.NewFromString(want)
	if err != nil {
		return err
	}
	if got := s.tc.FeeBalance(principal); !got.Equal(expected) {
		return fmt.Errorf("expected %s to hold %s, got %s", principal, expected, got)
	}
	return nil
}
