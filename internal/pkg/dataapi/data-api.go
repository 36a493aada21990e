package dataapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"valuegrade/internal/pkg/dart"
)

// ErrNotListed is returned when the price service has no row for the stock.
var ErrNotListed = errors.New("no listed stock price found")

type DataAPIClient struct {
	key    string
	client *http.Client
}

type StockPrice struct {
	BasDt      string `json:"basDt"`
	SrtnCd     string `json:"srtnCd"`
	IsinCd     string `json:"isinCd"`
	ItmsNm     string `json:"itmsNm"`
	MrktCtg    string `json:"mrktCtg"`
	Clpr       string `json:"clpr"`
	Vs         string `json:"vs"`
	FltRt      string `json:"fltRt"`
	Mkp        string `json:"mkp"`
	Hipr       string `json:"hipr"`
	Lopr       string `json:"lopr"`
	Trqu       string `json:"trqu"`
	TrPrc      string `json:"trPrc"`
	LstgStCnt  string `json:"lstgStCnt"`
	MrktTotAmt string `json:"mrktTotAmt"`
}

type StockPriceResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			NumOfRows  int `json:"numOfRows"`
			PageNo     int `json:"pageNo"`
			TotalCount int `json:"totalCount"`
			// "" when nothing matched, an object otherwise
			Items json.RawMessage `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

type stockPriceItems struct {
	Item []StockPrice `json:"item"`
}

const baseURL = "https://apis.data.go.kr"

func New(apiKey string) *DataAPIClient {
	return &DataAPIClient{
		key: apiKey,
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// UseDefaultClient routes requests through http.DefaultClient.
func (c *DataAPIClient) UseDefaultClient() {
	c.client = http.DefaultClient
}

// 금융위원회_주식시세정보
// GetStockPrice returns the latest price row. The short stock code is used
// when known since item names are not unique across markets.
func (c *DataAPIClient) GetStockPrice(stockCode, name string) (*StockPrice, error) {
	u, err := url.Parse(baseURL + "/1160100/service/GetStockSecuritiesInfoService/getStockPriceInfo")
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("serviceKey", c.key) // API Key
	q.Set("numOfRows", "1")
	q.Set("pageNo", "1")
	q.Set("resultType", "json")
	if stockCode != "" {
		q.Set("likeSrtnCd", stockCode)
	} else {
		q.Set("itmsNm", name)
	}

	u.RawQuery = q.Encode()

	resp, err := c.client.Get(u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("data.go.kr call failed: %d", resp.StatusCode)
	}

	var stockPriceResponse StockPriceResponse
	if err := json.Unmarshal(body, &stockPriceResponse); err != nil {
		return nil, err
	}

	header := stockPriceResponse.Response.Header
	if header.ResultCode != "" && header.ResultCode != "00" {
		return nil, fmt.Errorf("data.go.kr error %s: %s", header.ResultCode, header.ResultMsg)
	}

	raw := bytes.TrimSpace(stockPriceResponse.Response.Body.Items)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, ErrNotListed
	}

	var items stockPriceItems
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if len(items.Item) == 0 {
		return nil, ErrNotListed
	}

	return &items.Item[0], nil
}

// GetMarketCap returns the market capitalization in KRW.
func (c *DataAPIClient) GetMarketCap(stockCode, name string) (float64, error) {
	price, err := c.GetStockPrice(stockCode, name)
	if err != nil {
		return 0, err
	}

	v, err := dart.ParseAmount(price.MrktTotAmt)
	if err != nil {
		return 0, fmt.Errorf("market cap for %s: %w", price.ItmsNm, err)
	}

	log.Printf("market cap %s(%s) %s: %s", price.ItmsNm, price.SrtnCd, price.BasDt, price.MrktTotAmt)
	return v, nil
}
