package service

import (
	"campusDelivery/models"

	"github.com/google/uuid"
)

// establishmentNamespace derives stable establishment ids from their names,
// so reseeding never duplicates a row.
var establishmentNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("establishments.campus-delivery"))

// EstablishmentID returns the deterministic id of a seeded establishment.
func EstablishmentID(name string) string {
	return uuid.NewSHA1(establishmentNamespace, []byte(name)).String()
}

// SeedEstablishments returns the Temple-area catalog.
func SeedEstablishments() []models.Establishment {
	list := []models.Establishment{
		{
			Name: "Honey Truck", Category: "Food Truck",
			Location: models.Location{Latitude: 39.9805, Longitude: -75.1545, Address: "12th & W Norris St, Philadelphia, PA 19122"},
			ImageURL: image("honeytruck.jpeg"),
			MenuItems: []models.MenuItem{
				{Name: "Avocado Wrap", Price: 10.51, Category: "Sandwiches"},
				{Name: "Curry Bowl", Price: 9.99, Category: "Bowls"},
				{Name: "Chicken Sandwich", Price: 8.99, Category: "Sandwiches"},
			},
		},
		{
			Name: "Temple Teppanyaki", Category: "Japanese and Korean",
			Location: models.Location{Latitude: 39.9805, Longitude: -75.1545, Address: "1840 N Broad St, Philadelphia, PA 19122"},
			ImageURL: image("templeteppanyaki.jpeg"),
			MenuItems: []models.MenuItem{
				{Name: "Chicken Teppanyaki", Price: 10.00, Category: "Plates"},
				{Name: "Chicken Rice Bowl", Price: 9.50, Category: "Bowls"},
				{Name: "Shrimp Teppanyaki", Price: 10.00, Category: "Plates"},
				{Name: "Veggie Teppanyaki", Price: 10.00, Category: "Plates"},
				{Name: "Beef Rice Bowl", Price: 9.50, Category: "Bowls"},
				{Name: "Fried Shrimp", Price: 10.00, Category: "Sides"},
			},
		},
		{
			Name: "7-Eleven", Category: "Convenience Store",
			Location: models.Location{Latitude: 39.9820, Longitude: -75.1535, Address: "1835 N Broad St, Philadelphia, PA 19122"},
			ImageURL: image("7-eleven.jpeg"),
			MenuItems: []models.MenuItem{
				{Name: "Classic Hoagie", Price: 8.99, Category: "Hoagies"},
				{Name: "Buffalo Chicken Mac & Cheese Bowl", Price: 7.49, Category: "Hot Foods"},
				{Name: "Chicken Caesar Salad", Price: 8.99, Category: "Salads"},
				{Name: "Coffee (Medium)", Price: 1.89, Category: "Beverages"},
				{Name: "Soft Pretzel", Price: 1.29, Category: "Snacks"},
				{Name: "Energy Drink", Price: 3.49, Category: "Beverages"},
			},
		},
		{
			Name: "McDonald's", Category: "Fast Food",
			Location: models.Location{Latitude: 39.9790, Longitude: -75.1550, Address: "1801 N Broad St, Philadelphia, PA 19122"},
			ImageURL: image("mcdonalds.jpg"),
			MenuItems: []models.MenuItem{
				{Name: "Big Mac", Price: 6.49, Category: "Burgers"},
				{Name: "Quarter Pounder with Cheese", Price: 7.79, Category: "Burgers"},
				{Name: "10 Piece McNuggets", Price: 5.99, Category: "Chicken"},
				{Name: "Large Fries", Price: 3.79, Category: "Sides"},
				{Name: "McFlurry", Price: 4.39, Category: "Desserts"},
				{Name: "Medium Coke", Price: 1.00, Category: "Beverages"},
			},
		},
		{
			Name: "Starbucks", Category: "Coffee",
			Location: models.Location{Latitude: 39.9815, Longitude: -75.1525, Address: "1900 N 12th St, Philadelphia, PA 19122"},
			ImageURL: image("starbucks.jpeg"),
			MenuItems: []models.MenuItem{
				{Name: "Grande Pike Place Roast", Price: 2.85, Category: "Hot Coffee"},
				{Name: "Venti Iced Caramel Macchiato", Price: 5.95, Category: "Cold Coffee"},
				{Name: "Grande Chai Tea Latte", Price: 4.95, Category: "Tea"},
				{Name: "Bacon, Gouda & Egg Sandwich", Price: 5.45, Category: "Food"},
				{Name: "Blueberry Muffin", Price: 3.25, Category: "Pastries"},
				{Name: "Cake Pop", Price: 2.25, Category: "Treats"},
			},
		},
		{
			Name: "Dunkin'", Category: "Coffee",
			Location: models.Location{Latitude: 39.9800, Longitude: -75.1560, Address: "1700 N Broad St, Philadelphia, PA 19122"},
			ImageURL: image("dunkin.jpg"),
			MenuItems: []models.MenuItem{
				{Name: "Medium Original Blend Coffee", Price: 2.29, Category: "Hot Coffee"},
				{Name: "Large Iced Caramel Latte", Price: 4.59, Category: "Cold Coffee"},
				{Name: "Boston Kreme Donut", Price: 1.59, Category: "Donuts"},
				{Name: "Everything Bagel with Cream Cheese", Price: 3.49, Category: "Bagels"},
				{Name: "Sausage, Egg & Cheese on Croissant", Price: 5.29, Category: "Breakfast"},
				{Name: "Hash Browns", Price: 2.49, Category: "Sides"},
			},
		},
		{
			Name: "Halal Guys", Category: "Mediterranean",
			Location: models.Location{Latitude: 39.9825, Longitude: -75.1530, Address: "1850 N Broad St, Philadelphia, PA 19122"},
			ImageURL: image("halalguys.jpeg"),
			MenuItems: []models.MenuItem{
				{Name: "Chicken & Rice Platter", Price: 9.99, Category: "Platters"},
				{Name: "Lamb & Rice Platter", Price: 11.99, Category: "Platters"},
				{Name: "Mixed Platter (Chicken & Lamb)", Price: 12.99, Category: "Platters"},
				{Name: "Chicken Gyro", Price: 7.99, Category: "Gyros"},
				{Name: "Falafel Platter", Price: 8.99, Category: "Vegetarian"},
				{Name: "Baklava", Price: 3.99, Category: "Desserts"},
			},
		},
		{
			Name: "Popeyes Louisiana Kitchen", Category: "Fast Food",
			Location: models.Location{Latitude: 39.9785, Longitude: -75.1555, Address: "1750 N Broad St, Philadelphia, PA 19122"},
			ImageURL: image("popeyes.jpg"),
			MenuItems: []models.MenuItem{
				{Name: "3 Piece Chicken Tenders", Price: 8.99, Category: "Chicken"},
				{Name: "Spicy Chicken Sandwich", Price: 6.99, Category: "Sandwiches"},
				{Name: "8 Piece Family Meal", Price: 19.99, Category: "Family Meals"},
				{Name: "Large Red Beans & Rice", Price: 4.49, Category: "Sides"},
				{Name: "Biscuit", Price: 1.79, Category: "Sides"},
				{Name: "Sweet Tea (Large)", Price: 2.49, Category: "Beverages"},
			},
		},
	}
	for i := range list {
		list[i].ID = EstablishmentID(list[i].Name)
		list[i].IsActive = true
	}
	return list
}

func image(file string) *string {
	u := "/images/" + file
	return &u
}
