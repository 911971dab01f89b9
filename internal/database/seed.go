package database

import (
	"context"
	"fmt"

	"github.com/mrlokans/library/internal/entities"
)

// SampleBooks is the starter catalog inserted into an empty database.
var SampleBooks = []entities.Book{
	{Title: "The Pragmatic Programmer", Author: "Andrew Hunt", Category: "Software", Publisher: "Addison-Wesley", ISBN: "9780201616224"},
	{Title: "Clean Code", Author: "Robert C. Martin", Category: "Software", Publisher: "Prentice Hall", ISBN: "9780132350884"},
	{Title: "Design Patterns", Author: "Erich Gamma", Category: "Software", Publisher: "Addison-Wesley", ISBN: "9780201633610"},
	{Title: "Introduction to Algorithms", Author: "Cormen et al.", Category: "Algorithms", Publisher: "MIT Press", ISBN: "9780262033848"},
	{Title: "The Mythical Man-Month", Author: "Frederick P. Brooks Jr.", Category: "Software", Publisher: "Addison-Wesley", ISBN: "9780201835953"},
	{Title: "Refactoring", Author: "Martin Fowler", Category: "Software", Publisher: "Addison-Wesley", ISBN: "9780201485677"},
	{Title: "You Don't Know JS Yet", Author: "Kyle Simpson", Category: "JavaScript", Publisher: "Independently Published", ISBN: "9781091210099"},
	{Title: "Eloquent JavaScript", Author: "Marijn Haverbeke", Category: "JavaScript", Publisher: "No Starch Press", ISBN: "9781593279509"},
	{Title: "Python Crash Course", Author: "Eric Matthes", Category: "Python", Publisher: "No Starch Press", ISBN: "9781593276034"},
	{Title: "Fluent Python", Author: "Luciano Ramalho", Category: "Python", Publisher: "O'Reilly", ISBN: "9781491946008"},
	{Title: "Deep Learning", Author: "Goodfellow, Bengio, Courville", Category: "AI", Publisher: "MIT Press", ISBN: "9780262035613"},
	{Title: "Hands-On Machine Learning", Author: "Aurélien Géron", Category: "AI", Publisher: "O'Reilly", ISBN: "9781492032649"},
	{Title: "Sapiens", Author: "Yuval Noah Harari", Category: "History", Publisher: "Harper", ISBN: "9780062316110"},
	{Title: "Atomic Habits", Author: "James Clear", Category: "Self-help", Publisher: "Avery", ISBN: "9780735211292"},
	{Title: "The Alchemist", Author: "Paulo Coelho", Category: "Fiction", Publisher: "HarperOne", ISBN: "9780061122415"},
	{Title: "1984", Author: "George Orwell", Category: "Fiction", Publisher: "Signet", ISBN: "9780451524935"},
	{Title: "To Kill a Mockingbird", Author: "Harper Lee", Category: "Fiction", Publisher: "Harper Perennial", ISBN: "9780061120084"},
	{Title: "The Lean Startup", Author: "Eric Ries", Category: "Business", Publisher: "Crown Business", ISBN: "9780307887894"},
	{Title: "Zero to One", Author: "Peter Thiel", Category: "Business", Publisher: "Crown Business", ISBN: "9780804139298"},
	{Title: "Thinking, Fast and Slow", Author: "Daniel Kahneman", Category: "Psychology", Publisher: "Farrar, Straus and Giroux", ISBN: "9780374533557"},
}

// SeedSampleBooks inserts SampleBooks when the catalog is empty and returns
// the number of books created.
func (d *Database) SeedSampleBooks(ctx context.Context) (int, error) {
	var count int64
	if err := d.DB.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	books := make([]entities.Book, len(SampleBooks))
	copy(books, SampleBooks)
	for i := range books {
		books[i].Status = entities.BookStatusAvailable
	}

	if err := d.DB.WithContext(ctx).Create(&books).Error; err != nil {
		return 0, fmt.Errorf("failed to seed sample books: %w", err)
	}

	d.logger.WithField("count", len(books)).Info("seeded sample books")
	return len(books), nil
}
