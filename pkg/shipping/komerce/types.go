package komerce

// Rate is one deliverable service returned by the tariff calculator.
type Rate struct {
	ServiceCode string  `json:"service_code"`
	CourierName string  `json:"courier_name"`
	ServiceName string  `json:"service_name"`
	Price       float64 `json:"price"`
	Etd         string  `json:"etd"`
}

type Destination struct {
	ID              int    `json:"id"`
	Label           string `json:"label"`
	ProvinceName    string `json:"province_name"`
	CityName        string `json:"city_name"`
	DistrictName    string `json:"district_name"`
	SubdistrictName string `json:"subdistrict_name"`
	ZipCode         string `json:"zip_code"`
}

// RateQuery is the input of GetRates. Weight is in kilograms.
type RateQuery struct {
	OriginID      string
	DestinationID string
	WeightKg      float64
	ItemValue     float64
	COD           bool
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
