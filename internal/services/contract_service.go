package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"gorm.io/gorm"
)

// ContractReason describes why a contract document is generated.
type ContractReason string

const (
	ContractReasonOriginal  ContractReason = "original"
	ContractReasonRenewal   ContractReason = "renewal"
	ContractReasonAmendment ContractReason = "amendment"
)

// ContractGenerator is the external document collaborator: given a deal
// snapshot and a reason it produces a document and returns its storage URL
// and content hash.
type ContractGenerator interface {
	Generate(deal *models.Deal, reason ContractReason, reference string) (url string, hash string, err error)
}

type ContractService interface {
	// GenerateContract produces a document for the deal's current terms and
	// records it on the deal within the caller's transaction. Amendments and
	// renewals increment ContractVersion and archive the previous document
	// URL; the original contract keeps version 1.
	GenerateContract(tx *gorm.DB, deal *models.Deal, reason ContractReason) error
}

type contractService struct {
	generator ContractGenerator
	sequence  SequenceService
}

// NewContractService creates a new ContractService
func NewContractService(generator ContractGenerator, sequence SequenceService) ContractService {
	return &contractService{generator: generator, sequence: sequence}
}

func (s *contractService) GenerateContract(tx *gorm.DB, deal *models.Deal, reason ContractReason) error {
	url, hash, err := s.generator.Generate(deal, reason, s.sequence.NextContractRef())
	if err != nil {
		return fmt.Errorf("contract generation: %w", err)
	}

	version := deal.ContractVersion
	if reason != ContractReasonOriginal {
		version++
	}
	if version < 1 {
		version = 1
	}

	now := time.Now()
	updates := map[string]interface{}{
		"contract_version":           version,
		"last_contract_generated_at": now,
		"contract_document_url":      url,
		"contract_document_hash":     hash,
		"previous_contract_doc_url":  deal.ContractDocumentURL,
	}
	if err := ApplyVersionedUpdates(tx, deal, updates); err != nil {
		return err
	}

	deal.PreviousContractDocURL = deal.ContractDocumentURL
	deal.ContractVersion = version
	deal.ContractDocumentURL = url
	deal.ContractDocumentHash = hash
	deal.LastContractGeneratedAt = &now
	return nil
}

// localContractGenerator renders contract documents as JSON term sheets on
// the local filesystem. Production deployments swap in the real document
// collaborator.
type localContractGenerator struct {
	dir string
}

func NewLocalContractGenerator(dir string) (ContractGenerator, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create contract directory: %w", err)
	}
	return &localContractGenerator{dir: dir}, nil
}

func (g *localContractGenerator) Generate(deal *models.Deal, reason ContractReason, reference string) (string, string, error) {
	doc := map[string]interface{}{
		"reference":          reference,
		"reason":             reason,
		"deal_id":            deal.ID,
		"author_id":          deal.AuthorID,
		"investor_id":        deal.InvestorID,
		"offer_money":        deal.OfferMoney,
		"offer_deal":         deal.OfferDeal,
		"estimated_price":    deal.EstimatedPrice,
		"manufacturing_cost": deal.ManufacturingCost,
		"duration_months":    deal.DurationMonths,
		"generated_at":       time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", err
	}

	name := fmt.Sprintf("%s-deal-%d.json", reference, deal.ID)
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write contract document: %w", err)
	}

	sum := sha256.Sum256(data)
	return "file://" + path, hex.EncodeToString(sum[:]), nil
}
