package tokens

// Well-known mints.
const (
	WrappedSOL = "So11111111111111111111111111111111111111112"
	USDC       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDT       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MSOL       = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
	USDCet     = "A9mUU4qviSctJVPJdBJWkb28deg915LYJKrzQ19ji3FM"
	STSOL      = "7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj"
	RAY        = "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"
	ETHPortal  = "7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs"
	UXD        = "7kbnvuGBxxj8AG9qp8Scn56muWGaRaFqxg1FsRp3PaFT"
	SOETH      = "2FPyTwcZLUg1MDrwsyoP4D6s1tM7hAkHYRjkNb5w6Pxk"
	BTCSollet  = "9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E"
	SRM        = "SRMuApVNdxXokk5GT7XD5cUUgXMBCoAz2LHeuAoKWRt"
	SOUSDT     = "BQcdHdAQW1hczDbBi9hiegXAR7A98Q9jx3X3iBBBDiq4"
	ATLAS      = "ATLASXmbPQxBUYbxPsV97usA3fPQYEqzQBUHgiFCUsXx"
)

// DefaultQuoteMints are the quote mints scanned for venues when none are configured.
var DefaultQuoteMints = []string{
	USDC, USDT, WrappedSOL, MSOL, USDCet, STSOL, RAY,
	ETHPortal, UXD, SOETH, BTCSollet, SRM, SOUSDT, ATLAS,
}

// Defaults is the built-in token metadata for the well-known mints.
func Defaults() []Token {
	return []Token{
		{Mint: WrappedSOL, Symbol: "SOL", Decimals: 9},
		{Mint: USDC, Symbol: "USDC", Decimals: 6},
		{Mint: USDT, Symbol: "USDT", Decimals: 6},
		{Mint: MSOL, Symbol: "mSOL", Decimals: 9},
		{Mint: USDCet, Symbol: "USDCet", Decimals: 6},
		{Mint: STSOL, Symbol: "stSOL", Decimals: 9},
		{Mint: RAY, Symbol: "RAY", Decimals: 6},
		{Mint: ETHPortal, Symbol: "ETH", Decimals: 8},
		{Mint: UXD, Symbol: "UXD", Decimals: 6},
		{Mint: SOETH, Symbol: "soETH", Decimals: 6},
		{Mint: BTCSollet, Symbol: "BTC", Decimals: 6},
		{Mint: SRM, Symbol: "SRM", Decimals: 6},
		{Mint: SOUSDT, Symbol: "soUSDT", Decimals: 6},
		{Mint: ATLAS, Symbol: "ATLAS", Decimals: 8},
	}
}
