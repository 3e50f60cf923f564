package analyses

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chainsight/txlens/analysis"
)

// AnalysisRecord is the archived form of a completed trace analysis. The full
// result is kept as a JSON document; the flat columns exist for querying.
type AnalysisRecord struct {
	GUID              uuid.UUID   `gorm:"primaryKey" json:"guid"`
	TxHash            common.Hash `gorm:"serializer:bytes;index" json:"tx_hash"`
	Pattern           string      `gorm:"index" json:"pattern"`
	PatternConfidence float64     `json:"pattern_confidence"`
	ComplexityScore   float64     `json:"complexity_score"`
	ComplexityLevel   string      `json:"complexity_level"`
	MevDetected       bool        `gorm:"index" json:"mev_detected"`
	MevScore          float64     `json:"mev_score"`
	MevRiskLevel      string      `json:"mev_risk_level"`
	SecurityRiskLevel string      `gorm:"index" json:"security_risk_level"`
	TotalGas          *big.Int    `gorm:"serializer:u256" json:"total_gas"`
	CallCount         uint64      `json:"call_count"`
	ErrorCount        uint64      `json:"error_count"`
	MaxDepth          uint64      `json:"max_depth"`
	Result            []byte      `gorm:"type:jsonb" json:"result"`
	CreatedAt         time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AnalysisRecord) TableName() string {
	return "trace_analyses"
}

// NewAnalysisRecord flattens a result into its archived form.
func NewAnalysisRecord(result *analysis.TraceAnalysisResult) (AnalysisRecord, error) {
	doc, err := json.Marshal(result)
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	return AnalysisRecord{
		GUID:              uuid.New(),
		TxHash:            common.HexToHash(result.TxHash),
		Pattern:           result.Pattern.Primary.Type,
		PatternConfidence: result.Pattern.Primary.Confidence,
		ComplexityScore:   result.Summary.ComplexityScore,
		ComplexityLevel:   result.Summary.ComplexityLevel,
		MevDetected:       result.Mev.Detected,
		MevScore:          result.Mev.Score,
		MevRiskLevel:      result.Mev.RiskLevel,
		SecurityRiskLevel: result.Security.RiskLevel,
		TotalGas:          new(big.Int).SetUint64(result.Summary.TotalGas),
		CallCount:         uint64(result.Summary.TotalCalls),
		ErrorCount:        uint64(result.Summary.ErrorCount),
		MaxDepth:          uint64(result.Summary.MaxDepth),
		Result:            doc,
	}, nil
}

type AnalysesView interface {
	QueryAnalysisByTxHash(txHash common.Hash) (*AnalysisRecord, error)
	QueryLatestAnalyses(limit int) ([]AnalysisRecord, error)
	QueryAnalysesByPattern(pattern string, limit int) ([]AnalysisRecord, error)
	CountByRiskLevel() (map[string]int64, error)
}

type AnalysesModifier interface {
	StoreAnalysis(record AnalysisRecord) error
	StoreAnalyses(records []AnalysisRecord) error
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

type AnalysesDB interface {
	AnalysesView
	AnalysesModifier
}

type analysesDB struct {
	gorm *gorm.DB
}

func NewAnalysesDB(db *gorm.DB) AnalysesDB {
	return &analysesDB{gorm: db}
}

func (a *analysesDB) QueryAnalysisByTxHash(txHash common.Hash) (*AnalysisRecord, error) {
	var record AnalysisRecord
	result := a.gorm.Table(record.TableName()).
		Where("tx_hash = ?", txHash.String()).
		Order("created_at DESC").
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query analysis by tx hash failed: %w", result.Error)
	}
	return &record, nil
}

func (a *analysesDB) QueryLatestAnalyses(limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []AnalysisRecord
	result := a.gorm.Table(AnalysisRecord{}.TableName()).
		Order("created_at DESC").
		Limit(limit).
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("query latest analyses failed: %w", result.Error)
	}
	return records, nil
}

func (a *analysesDB) QueryAnalysesByPattern(pattern string, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []AnalysisRecord
	result := a.gorm.Table(AnalysisRecord{}.TableName()).
		Where("pattern = ?", pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("query analyses by pattern failed: %w", result.Error)
	}
	return records, nil
}

func (a *analysesDB) CountByRiskLevel() (map[string]int64, error) {
	type riskCount struct {
		SecurityRiskLevel string
		Count             int64
	}

	var rows []riskCount
	result := a.gorm.Table(AnalysisRecord{}.TableName()).
		Select("security_risk_level, count(*) as count").
		Group("security_risk_level").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("count by risk level failed: %w", result.Error)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.SecurityRiskLevel] = row.Count
	}
	return counts, nil
}

func (a *analysesDB) StoreAnalysis(record AnalysisRecord) error {
	return a.StoreAnalyses([]AnalysisRecord{record})
}

func (a *analysesDB) StoreAnalyses(records []AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}
	result := a.gorm.Table(AnalysisRecord{}.TableName()).CreateInBatches(&records, len(records))
	return result.Error
}

func (a *analysesDB) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := a.gorm.Table(AnalysisRecord{}.TableName()).
		Where("created_at < ?", cutoff).
		Delete(&AnalysisRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete old analyses failed: %w", result.Error)
	}
	return result.RowsAffected, nil
}
