package model

// CreditPack is a fixed bundle of Skill Credits sold for a whole-rupee price.
type CreditPack struct {
	Name  string `json:"name"`
	SC    int64  `json:"sc"`
	Price int64  `json:"price"`
}

var CreditPacks = []CreditPack{
	{Name: "Starter", SC: 50, Price: 500},
	{Name: "Growth", SC: 150, Price: 1200},
	{Name: "Pro", SC: 400, Price: 3000},
}
