package fnguard

import "strings"

// Model identifies a supported language-model backend.
type Model string

// Supported models. Adding one means extending Models and Model.Valid.
const (
	ModelBabbage002         Model = "babbage-002"
	ModelDavinci002         Model = "davinci-002"
	ModelGPT35Turbo         Model = "gpt-3.5-turbo"
	ModelGPT35Turbo16k      Model = "gpt-3.5-turbo-16k"
	ModelGPT35TurboInstruct Model = "gpt-3.5-turbo-instruct"
	ModelGPT4               Model = "gpt-4"
	ModelGPT432k            Model = "gpt-4-32k"
	ModelGPT4TurboPreview   Model = "gpt-4-turbo-preview"
	ModelGPT4VisionPreview  Model = "gpt-4-vision-preview"
	ModelMixtral            Model = "mixtral"
)

// Valid reports whether m is one of the supported models.
func (m Model) Valid() bool {
	switch m {
	case ModelBabbage002, ModelDavinci002, ModelGPT35Turbo, ModelGPT35Turbo16k,
		ModelGPT35TurboInstruct, ModelGPT4, ModelGPT432k, ModelGPT4TurboPreview,
		ModelGPT4VisionPreview, ModelMixtral:
		return true
	}
	return false
}

// Models returns the supported models in declaration order.
func Models() []Model {
	return []Model{
		ModelBabbage002, ModelDavinci002, ModelGPT35Turbo, ModelGPT35Turbo16k,
		ModelGPT35TurboInstruct, ModelGPT4, ModelGPT432k, ModelGPT4TurboPreview,
		ModelGPT4VisionPreview, ModelMixtral,
	}
}

// ResponseFormat selects the shape of the model output.
type ResponseFormat string

const (
	ResponseFormatText       ResponseFormat = "text"
	ResponseFormatJSONObject ResponseFormat = "json_object"
)

// Valid reports whether f is text or json_object.
func (f ResponseFormat) Valid() bool {
	switch f {
	case ResponseFormatText, ResponseFormatJSONObject:
		return true
	}
	return false
}

// PropertyType is the primitive type tag of a tool parameter.
type PropertyType string

const (
	PropertyChar   PropertyType = "char"
	PropertyString PropertyType = "string"
	PropertyBool   PropertyType = "bool"
	PropertyInt    PropertyType = "int"
	PropertyDouble PropertyType = "double"
	PropertyFloat  PropertyType = "float"
	PropertyDate   PropertyType = "date"
	PropertyEnum   PropertyType = "enum"
)

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyChar, PropertyString, PropertyBool, PropertyInt,
		PropertyDouble, PropertyFloat, PropertyDate, PropertyEnum:
		return true
	}
	return false
}

// PropertyTypes returns the known property types in declaration order.
func PropertyTypes() []PropertyType {
	return []PropertyType{
		PropertyChar, PropertyString, PropertyBool, PropertyInt,
		PropertyDouble, PropertyFloat, PropertyDate, PropertyEnum,
	}
}

// propertyTypeList is the comma separated form used in error messages.
var propertyTypeList = func() string {
	types := PropertyTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}()
