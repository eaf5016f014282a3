package schema

import "strconv"

// Standardized plot record columns, in output order.
const (
	ColSucafinaPlotID           = "sucafina_plot_id"
	ColSupplierPlotID           = "supplier_plot_id"
	ColFarmerID                 = "farmer_id"
	ColSupplierCode             = "supplier_code"
	ColPlotRegion               = "plot_region"
	ColPlotDistrict             = "plot_district"
	ColPlotAreaHa               = "plot_area_ha"
	ColPlotLongitude            = "plot_longitude"
	ColPlotLatitude             = "plot_latitude"
	ColPlotGPSPoint             = "plot_gps_point"
	ColPlotGPSPolygon           = "plot_gps_polygon"
	ColPlotWKT                  = "plot_wkt"
	ColIsGeodataValidated       = "is_geodata_validated"
	ColIsCafePracticesCertified = "is_cafe_practices_certified"
	ColIsRFAUTZCertified        = "is_rfa_utz_certified"
	ColIsImpactCertified        = "is_impact_certified"
	ColIsOrganicCertified       = "is_organic_certified"
	ColIs4CCertified            = "is_4c_certified"
	ColIsFairtradeCertified     = "is_fairtrade_certified"
	ColOtherCertificationName   = "other_certification_name"
	ColPlotSupplyChain          = "plot_supply_chain"
	ColPlotFarmerGroup          = "plot_farmer_group"
)

// Columns is the standardized record layout. It is the single source of truth
// for column order in every preview.
var Columns = []string{
	ColSucafinaPlotID,
	ColSupplierPlotID,
	ColFarmerID,
	ColSupplierCode,
	ColPlotRegion,
	ColPlotDistrict,
	ColPlotAreaHa,
	ColPlotLongitude,
	ColPlotLatitude,
	ColPlotGPSPoint,
	ColPlotGPSPolygon,
	ColPlotWKT,
	ColIsGeodataValidated,
	ColIsCafePracticesCertified,
	ColIsRFAUTZCertified,
	ColIsImpactCertified,
	ColIsOrganicCertified,
	ColIs4CCertified,
	ColIsFairtradeCertified,
	ColOtherCertificationName,
	ColPlotSupplyChain,
	ColPlotFarmerGroup,
}

// Record is one standardized plot row. Nil pointers are nulls.
type Record struct {
	SucafinaPlotID           *string  `json:"sucafina_plot_id"`
	SupplierPlotID           *string  `json:"supplier_plot_id"`
	FarmerID                 *string  `json:"farmer_id"`
	SupplierCode             *string  `json:"supplier_code"`
	PlotRegion               *string  `json:"plot_region"`
	PlotDistrict             *string  `json:"plot_district"`
	PlotAreaHa               *float64 `json:"plot_area_ha"`
	PlotLongitude            *float64 `json:"plot_longitude"`
	PlotLatitude             *float64 `json:"plot_latitude"`
	PlotGPSPoint             *string  `json:"plot_gps_point"`
	PlotGPSPolygon           *string  `json:"plot_gps_polygon"`
	PlotWKT                  *string  `json:"plot_wkt"`
	IsGeodataValidated       bool     `json:"is_geodata_validated"`
	IsCafePracticesCertified bool     `json:"is_cafe_practices_certified"`
	IsRFAUTZCertified        bool     `json:"is_rfa_utz_certified"`
	IsImpactCertified        bool     `json:"is_impact_certified"`
	IsOrganicCertified       bool     `json:"is_organic_certified"`
	Is4CCertified            bool     `json:"is_4c_certified"`
	IsFairtradeCertified     bool     `json:"is_fairtrade_certified"`
	OtherCertificationName   *string  `json:"other_certification_name"`
	PlotSupplyChain          *string  `json:"plot_supply_chain"`
	PlotFarmerGroup          *string  `json:"plot_farmer_group"`
}

// Values renders the record in Columns order. Nulls render as "".
func (r Record) Values() []string {
	return []string{
		str(r.SucafinaPlotID),
		str(r.SupplierPlotID),
		str(r.FarmerID),
		str(r.SupplierCode),
		str(r.PlotRegion),
		str(r.PlotDistrict),
		num(r.PlotAreaHa),
		num(r.PlotLongitude),
		num(r.PlotLatitude),
		str(r.PlotGPSPoint),
		str(r.PlotGPSPolygon),
		str(r.PlotWKT),
		strconv.FormatBool(r.IsGeodataValidated),
		strconv.FormatBool(r.IsCafePracticesCertified),
		strconv.FormatBool(r.IsRFAUTZCertified),
		strconv.FormatBool(r.IsImpactCertified),
		strconv.FormatBool(r.IsOrganicCertified),
		strconv.FormatBool(r.Is4CCertified),
		strconv.FormatBool(r.IsFairtradeCertified),
		str(r.OtherCertificationName),
		str(r.PlotSupplyChain),
		str(r.PlotFarmerGroup),
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
