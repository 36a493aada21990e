package controllers

import (
	"net/http"

	"valuegrade/internal/pkg/corp"

	"github.com/gin-gonic/gin"
)

type CompanyController struct {
	Directory *corp.Directory
}

type CompanyResponse struct {
	CorpCode    string `json:"corp_code"`
	CorpName    string `json:"corp_name"`
	CorpEngName string `json:"corp_eng_name"`
	StockCode   string `json:"stock_code"`
}

// GetCompanies searches the corp code directory by name.
func (cc *CompanyController) GetCompanies(c *gin.Context) {
	limit := getLimitWithDefault(c, 20)

	found := cc.Directory.Search(c.Query("search"), limit)

	companies := make([]CompanyResponse, 0, len(found))
	for _, company := range found {
		companies = append(companies, CompanyResponse{
			CorpCode:    company.CorpCode,
			CorpName:    company.CorpName,
			CorpEngName: company.CorpEngName,
			StockCode:   company.StockCode,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
	})
}
