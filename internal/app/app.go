// Package app assembles the analyzer from configuration for the binaries.
package app

import (
	"context"
	"errors"
	"log"
	"os"

	"valuegrade/internal/analyzer"
	"valuegrade/internal/config"
	"valuegrade/internal/db"
	"valuegrade/internal/models"
	"valuegrade/internal/pkg/corp"
	"valuegrade/internal/pkg/dart"
	"valuegrade/internal/pkg/dataapi"
	"valuegrade/internal/pkg/openai"
)

// LoadCompanies reads CORPCODE.xml, falling back to the companies table and
// finally to downloading the file. store may be nil.
func LoadCompanies(ctx context.Context, cfg *config.Config, client *dart.DartClient, store *db.Store) ([]dart.Company, error) {
	companies, err := dart.LoadCorpCodeFile(cfg.CorpCodePath)
	if err == nil {
		log.Printf("loaded %d companies from %s", len(companies), cfg.CorpCodePath)
		return companies, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if store != nil {
		rows, err := store.Companies(ctx)
		if err != nil {
			log.Printf("failed to read companies table: %v", err)
		} else if len(rows) > 0 {
			log.Printf("loaded %d companies from the database", len(rows))
			return FromModels(rows), nil
		}
	}

	log.Printf("%s not found, downloading", cfg.CorpCodePath)
	if err := client.DownloadCorpCodeFile(cfg.CorpCodePath); err != nil {
		return nil, err
	}
	return dart.LoadCorpCodeFile(cfg.CorpCodePath)
}

func FromModels(rows []models.Company) []dart.Company {
	out := make([]dart.Company, 0, len(rows))
	for _, r := range rows {
		c := dart.Company{
			CorpCode:    r.CorpCode,
			CorpName:    r.CorpName,
			CorpEngName: r.CorpEngName,
			StockCode:   r.StockCode,
		}
		if !r.LastModifiedDate.IsZero() {
			c.ModifyDate = r.LastModifiedDate.Format("20060102")
		}
		out = append(out, c)
	}
	return out
}

// NewAnalyzer builds the pipeline. Market data is attached when
// DATA_API_KEY is set and the store when one is given.
func NewAnalyzer(cfg *config.Config, client *dart.DartClient, companies []dart.Company, store *db.Store) *analyzer.Analyzer {
	grader := openai.NewGrader(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	a := analyzer.New(corp.NewDirectory(companies), client, grader)

	if cfg.DataAPIKey != "" {
		a.UseMarketData(dataapi.New(cfg.DataAPIKey))
	} else {
		log.Println("DATA_API_KEY not set, PER and PBR fall back to defaults")
	}

	if store != nil {
		a.UseStore(store)
	}

	return a
}
