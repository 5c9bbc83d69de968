package costing

// DefaultCatalog returns the built-in cost code catalog loaded at startup.
// Divisions follow the CSI MasterFormat numbering used on most job sites.
func DefaultCatalog() []CostCodeSpec {
	return []CostCodeSpec{
		{Code: "01-100", Name: "Project Management", Description: "Project manager and superintendent time",
			Division: "01 General Requirements", Category: "Supervision", Type: CostCodeTypeLabor, UnitOfMeasure: "hr",
			Tags: []string{"supervision", "management", "superintendent"}, IsDefault: true},
		{Code: "01-500", Name: "Temporary Facilities", Description: "Site offices, fencing, toilets and temporary power",
			Division: "01 General Requirements", Category: "Site Setup", Type: CostCodeTypeOther, UnitOfMeasure: "ls",
			Tags: []string{"fencing", "toilet", "trailer", "temporary"}, IsDefault: true},
		{Code: "01-540", Name: "Equipment Rental", Description: "Rented cranes, lifts and site machinery",
			Division: "01 General Requirements", Category: "Site Setup", Subcategory: "Equipment", Type: CostCodeTypeEquipment, UnitOfMeasure: "day",
			Tags: []string{"rental", "crane", "lift", "excavator"}, IsDefault: true},
		{Code: "02-200", Name: "Site Preparation", Description: "Clearing, grubbing and demolition",
			Division: "02 Existing Conditions", Category: "Demolition", Type: CostCodeTypeLabor, UnitOfMeasure: "sf",
			Tags: []string{"demolition", "clearing"}, IsDefault: true},
		{Code: "03-100", Name: "Concrete Formwork", Description: "Forms for footings, walls and slabs",
			Division: "03 Concrete", Category: "Formwork", Type: CostCodeTypeMaterial, UnitOfMeasure: "sf",
			Tags: []string{"formwork", "forms"}, IsDefault: true},
		{Code: "03-200", Name: "Concrete Reinforcement", Description: "Rebar and mesh supply and placement",
			Division: "03 Concrete", Category: "Reinforcement", Type: CostCodeTypeMaterial, UnitOfMeasure: "ton",
			Tags: []string{"rebar", "reinforcement", "mesh"}, IsDefault: true},
		{Code: "03-300", Name: "Cast-in-Place Concrete", Description: "Ready-mix concrete supply and pour",
			Division: "03 Concrete", Category: "Cast-in-Place", Type: CostCodeTypeMaterial, UnitOfMeasure: "cy",
			Tags: []string{"concrete", "ready-mix", "pour", "cement"}, IsDefault: true},
		{Code: "04-200", Name: "Unit Masonry", Description: "Block and brick walls",
			Division: "04 Masonry", Category: "Unit Masonry", Type: CostCodeTypeSubcontract, UnitOfMeasure: "sf",
			Tags: []string{"masonry", "brick", "block"}, IsDefault: true},
		{Code: "05-100", Name: "Structural Steel", Description: "Structural steel framing fabrication and erection",
			Division: "05 Metals", Category: "Structural Metal Framing", Type: CostCodeTypeSubcontract, UnitOfMeasure: "ton",
			Tags: []string{"steel", "beam", "column"}, IsDefault: true},
		{Code: "06-100", Name: "Rough Carpentry", Description: "Wood framing, blocking and sheathing lumber",
			Division: "06 Wood, Plastics and Composites", Category: "Rough Carpentry", Type: CostCodeTypeMaterial, UnitOfMeasure: "bf",
			Tags: []string{"lumber", "framing", "plywood", "wood"}, IsDefault: true},
		{Code: "07-500", Name: "Roofing", Description: "Membrane roofing and flashing",
			Division: "07 Thermal and Moisture Protection", Category: "Roofing", Type: CostCodeTypeSubcontract, UnitOfMeasure: "sq",
			Tags: []string{"roofing", "membrane", "flashing"}, IsDefault: true},
		{Code: "08-100", Name: "Doors and Frames", Description: "Hollow metal and wood doors",
			Division: "08 Openings", Category: "Doors", Type: CostCodeTypeMaterial, UnitOfMeasure: "ea",
			Tags: []string{"door", "frame", "hardware"}, IsDefault: true},
		{Code: "09-200", Name: "Drywall", Description: "Gypsum board partitions and ceilings",
			Division: "09 Finishes", Category: "Plaster and Gypsum Board", Type: CostCodeTypeSubcontract, UnitOfMeasure: "sf",
			Tags: []string{"drywall", "gypsum", "sheetrock"}, IsDefault: true},
		{Code: "09-900", Name: "Painting", Description: "Interior and exterior painting",
			Division: "09 Finishes", Category: "Painting and Coating", Type: CostCodeTypeSubcontract, UnitOfMeasure: "sf",
			Tags: []string{"paint", "coating", "primer"}, IsDefault: true},
		{Code: "22-100", Name: "Plumbing Piping", Description: "Domestic water and sanitary piping",
			Division: "22 Plumbing", Category: "Piping", Type: CostCodeTypeSubcontract, UnitOfMeasure: "lf",
			Tags: []string{"plumbing", "pipe", "water"}, IsDefault: true},
		{Code: "23-300", Name: "HVAC Ductwork", Description: "Air distribution ductwork",
			Division: "23 HVAC", Category: "Air Distribution", Type: CostCodeTypeSubcontract, UnitOfMeasure: "lb",
			Tags: []string{"hvac", "duct", "ventilation"}, IsDefault: true},
		{Code: "26-100", Name: "Electrical Wiring", Description: "Conduit, wire and devices",
			Division: "26 Electrical", Category: "Wiring", Type: CostCodeTypeSubcontract, UnitOfMeasure: "lf",
			Tags: []string{"electrical", "wire", "conduit", "cable"}, IsDefault: true},
		{Code: "31-200", Name: "Earthwork", Description: "Excavation, fill and compaction",
			Division: "31 Earthwork", Category: "Earth Moving", Type: CostCodeTypeEquipment, UnitOfMeasure: "cy",
			Tags: []string{"excavation", "grading", "fill", "compaction"}, IsDefault: true},
		{Code: "32-100", Name: "Paving", Description: "Asphalt and concrete paving",
			Division: "32 Exterior Improvements", Category: "Paving", Type: CostCodeTypeSubcontract, UnitOfMeasure: "sy",
			Tags: []string{"asphalt", "paving"}, IsDefault: true},
		{Code: "99-000", Name: "Miscellaneous", Description: "Costs not covered by another code",
			Division: "99 Miscellaneous", Type: CostCodeTypeOther, UnitOfMeasure: "ls",
			Tags: []string{"misc"}, IsDefault: true},
	}
}
