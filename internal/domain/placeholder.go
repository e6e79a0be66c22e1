package domain

// ArgumentKind discriminates the command-line argument IR.
type ArgumentKind string

const (
	ArgumentLiteral    ArgumentKind = "literal"
	ArgumentInputValue ArgumentKind = "inputValue"
	ArgumentInputPath  ArgumentKind = "inputPath"
	ArgumentOutputPath ArgumentKind = "outputPath"
	ArgumentIf         ArgumentKind = "if"
)

// Argument is one element of a container command or args list. Exactly one
// of Text, Name, or If is meaningful, selected by Kind.
type Argument struct {
	Kind ArgumentKind
	Text string
	Name string
	If   *IfArgument
}

// IfArgument guards a group of arguments on the presence of an input at
// task-construction time.
type IfArgument struct {
	IsPresent string
	Then      []Argument
}

// Literal returns a verbatim string argument.
func Literal(text string) Argument {
	return Argument{Kind: ArgumentLiteral, Text: text}
}

// InputValuePlaceholder resolves to the serialized value of the named input.
func InputValuePlaceholder(name string) Argument {
	return Argument{Kind: ArgumentInputValue, Name: name}
}

// InputPathPlaceholder resolves to a local path holding the named input's data.
func InputPathPlaceholder(name string) Argument {
	return Argument{Kind: ArgumentInputPath, Name: name}
}

// OutputPathPlaceholder resolves to a local path where the named output
// must be written.
func OutputPathPlaceholder(name string) Argument {
	return Argument{Kind: ArgumentOutputPath, Name: name}
}

// IfPresent wraps arguments so they are emitted only when the named input
// receives a value.
func IfPresent(inputName string, then []Argument) Argument {
	return Argument{Kind: ArgumentIf, If: &IfArgument{IsPresent: inputName, Then: then}}
}
