package catalog

// defaults is the grocery list the product detector was trained on, keyed by class id.
var defaults = []Item{
	{0, "Nescafe Coffee", 12.00},
	{1, "Kopiko Coffee", 15.00},
	{2, "Lucky Me Pancit Canton", 25.00},
	{3, "Coke in Can", 45.00},
	{4, "Alaska Milk", 55.00},
	{5, "Century Tuna", 42.00},
	{6, "VCut Spicy BBQ", 38.00},
	{7, "Selecta Cornetto", 30.00},
	{8, "Nestle Yogurt", 35.00},
	{9, "Femme Tissue", 20.00},
	{10, "Maya Champorado", 40.00},
	{11, "J&J Potato Chips", 35.00},
	{12, "Nivea Deodorant", 89.00},
	{13, "UFC Canned Mushroom", 32.00},
	{14, "Libby's Sausage", 50.00},
	{15, "Stik-O", 65.00},
	{16, "Nissin Cup Noodles", 28.00},
	{17, "Dewberry Strawberry", 75.00},
	{18, "Smart-C", 35.00},
	{19, "Pineapple Juice", 40.00},
	{20, "Nestle Chuckie", 32.00},
	{21, "Delight Probiotic", 10.00},
	{22, "Summit Water", 20.00},
	{23, "Almond Milk", 120.00},
	{24, "Piknik", 85.00},
	{25, "Bactidol", 150.00},
	{26, "Head & Shoulders", 12.00},
	{27, "Irish Spring Soap", 45.00},
	{28, "C2 Green Tea", 28.00},
	{29, "Colgate Toothpaste", 95.00},
	{30, "555 Sardines", 22.00},
	{31, "Meadows Truffle Chips", 140.00},
	{32, "Double Black", 60.00},
	{33, "Nongshim Noodles", 55.00},
}

// Defaults returns a fresh copy of the built-in grocery list.
func Defaults() []Item {
	out := make([]Item, len(defaults))
	copy(out, defaults)
	return out
}
