package seed

type categoryDef struct {
	name        string
	description string
}

type productDef struct {
	name         string
	description  string
	categorySlug string
	price        int64 // cents
	stock        int
}

var demoCategories = []categoryDef{
	{"Electronics", "Gadgets, peripherals and accessories."},
	{"Home & Kitchen", "Cookware and small appliances."},
	{"Books", ""},
}

var demoProducts = []productDef{
	{"Wireless Headphones", "Over-ear headphones with 30-hour battery life.", "electronics", 7999, 40},
	{"USB-C Hub", "7-in-1 hub with HDMI output and SD card reader.", "electronics", 3499, 120},
	{"Mechanical Keyboard", "Full-size keyboard with tactile switches.", "electronics", 8999, 25},
	{"Cast Iron Skillet", "Pre-seasoned 12-inch skillet.", "home-kitchen", 3499, 60},
	{"Coffee Maker", "12-cup programmable drip brewer.", "home-kitchen", 4999, 0},
	{"The Go Programming Language", "", "books", 3999, 15},
	{"Designing Data-Intensive Applications", "", "books", 4499, 8},
}
