package provision

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"solana-taxed-token/internal/domain"
)

// WriteReceipt writes r as indented JSON to path, replacing any previous
// receipt. The file is written to a temporary name and renamed into place.
func WriteReceipt(path string, r *domain.DeploymentReceipt) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create receipt dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".receipt-*.json")
	if err != nil {
		return fmt.Errorf("create temp receipt: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write receipt: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close receipt: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename receipt: %w", err)
	}
	return nil
}

// ReadReceipt loads a receipt written by WriteReceipt.
func ReadReceipt(path string) (*domain.DeploymentReceipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	var r domain.DeploymentReceipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse receipt: %w", err)
	}
	return &r, nil
}
