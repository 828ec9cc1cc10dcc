package models

// Expense buckets
const (
	BucketFixed       = "fixed"
	BucketEssential   = "essential"
	BucketVariable    = "variable"
	BucketSuperfluous = "superfluous"
)

// ExpenseBuckets lists the four ledger buckets in display order.
var ExpenseBuckets = []string{
	BucketFixed,
	BucketEssential,
	BucketVariable,
	BucketSuperfluous,
}

// Categories is the closed set of expense categories. Free text is not
// accepted anywhere a category is stored.
var Categories = []string{
	"Housing",
	"Transport",
	"Food",
	"Health",
	"Leisure",
	"Education",
	"Clothing",
	"Debts",
	"Investments",
	"Other",
}

// ValidBucket reports whether bucket is one of the four expense buckets.
func ValidBucket(bucket string) bool {
	for _, b := range ExpenseBuckets {
		if b == bucket {
			return true
		}
	}
	return false
}

// ValidCategory reports whether category belongs to the closed category set.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
