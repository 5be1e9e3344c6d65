package content

// Embedded reserve lists, used when a catalog file is absent or fails
// validation. Startup must never block on a broken content file.

var fallbackPhrases = []Record{
	{He: "סבבה", Ru: "окей; норм", Note: "разговорное «ок»"},
	{He: "אין בעיה", Ru: "без проблем"},
	{He: "יאללה, נתקדם", Ru: "ну поехали, двигаемся"},
	{He: "בא לי קפה", Ru: "мне хочется кофе", Note: "בא לי — «мне хочется»"},
	{He: "כמה זה יוצא?", Ru: "сколько выходит?", Note: "про цену/итог"},
	{He: "לאט לאט", Ru: "постепенно; не спеши", Note: "о терпении и спокойствии"},
	{He: "חבל על הזמן", Ru: "круто! отлично!", Note: "букв. «жаль времени», в сленге — «супер»"},
	{He: "שניה, אני בודקת", Ru: "секунду, я проверю"},
}

var fallbackFacts = []Record{
	{He: "עברית", Ru: "В современном иврите около 9 миллионов носителей.", Category: "language"},
	{He: "שבת שלום", Ru: "«Шабат шалом» говорят с вечера пятницы до исхода субботы.", Category: "culture"},
	{He: "אליעזר בן יהודה", Ru: "Элиэзер Бен-Иегуда возродил иврит как разговорный язык.", Category: "language"},
	{He: "חומוס", Ru: "Хумус едят на завтрак, обед и ужин — и спорят, чей лучше.", Category: "culture"},
	{He: "ים המלח", Ru: "Мёртвое море — самая низкая точка суши на Земле.", Category: "geography"},
}
