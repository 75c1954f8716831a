package diagnostics

// Message constants for every diagnostic kind named by the front end,
// grouped by the stage that raises them. Callers insert these directly via
// Collector.Insert, optionally appending positional detail.
const (
	// File errors
	CannotOpenFile = "could not open the given file"

	// Lexer errors
	UnterminatedComment = "unterminated multi-line comment"
	UnterminatedString  = "unterminated string"
	InvalidEscapeCode   = "invalid escape code in character/string"
	InvalidChar         = "invalid character while lexing, characters can only be one character in size"
	UnexpectedChar      = "unexpected character while lexing"
	InvalidQuotes       = "invalid single quote placement in number"
	InvalidRealNumber   = "invalid real number with multiple dots"

	// Preprocessor errors (structural)
	ExpectedIdentMacroDef     = "expected an identifier after macro definition"
	ExpectedEqualsMacroDef    = "expected '=' after macro identifier in macro definition"
	MacroExists               = "tried to define a macro that already exists"
	InvalidMacroParams        = "invalid macro parameters in macro definition, either use no parentheses or parentheses with parameters"
	InvalidMacroBody          = "invalid macro body, expected at least one token; use ';' instead of '=' if a pure declaration macro is needed"
	ExpectedCommaOrRParen     = "expected a ',' or a ')' after a parameter in macro definition"
	InvalidMacroCall          = "invalid macro call, either unclosed parentheses or parentheses without arguments"
	CalledEmptyMacro          = "tried to call a macro that was defined without a body"
	InvalidArgCount           = "tried to call a macro where the argument count did not match the definition parameter count"
	InfiniteMacroLoop         = "detected infinite macro loop, if this was a mistake, raise the configured macro depth"
	StatementSemicolon        = "expected statement/macro to end in a semicolon"
	InvalidConcatenationMacro = "invalid concatenation macro, expected two operands"
	InvalidEqualityMacro      = "invalid equality/inequality macro, expected two operands"
	InvalidUndefine           = "expected a macro identifier after the '#undef' keyword"
	InvalidVariadicMacro      = "invalid variadic macro, the '...' parameter can only be used once and only at the end of the parameter list"
	ExpectedStringAfterError  = "expected a string after the error directive"
	ImportInvalidFile         = "tried to import a file that does not exist"
	ExpectedFile              = "expected a file after '#include'/'#import'"

	// Preprocessor errors (conditional)
	InvalidMcondStart         = "macro conditionals must start with '#if'"
	McondEndif                = "macro conditional did not end with an '#endif'"
	InvalidMcond              = "invalid macro conditional, expected a newline after the boolean expression"
	McondMismatchedParens     = "mismatched parentheses in macro conditional boolean expression"
	InvalidBoolExpr           = "invalid boolean expression in macro conditional"
	UnexpectedTokenMcond      = "unexpected token in macro conditional boolean expression"
	CouldNotConvertNumber     = "could not convert the token to a number"
	ExpectedStringAfterAssert = "expected a string after the assert directive"

	// Parser errors
	ExpectedColonTernary       = "expected a ':' after the middle expression in the ternary expression"
	MismatchedParentheses      = "mismatched parentheses while parsing"
	ExpectedPrimaryExpression  = "expected primary expression while parsing"
	ExpectedType               = "expected a type name after 'mut'/'con'"
	ExpectedIdentifierVarDecl  = "expected an identifier after variable declaration"
	ExpectedEqualsOrSemicolon  = "expected a ';' or '=' after variable declaration identifier"
	ExpectedVarBody            = "expected the immutable/constant variable to have a body"
	AutoMustHaveBody           = "automatic variable must have an initial value"
)
