package streams

import (
	"fmt"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// ConvertStreamImage converts a stream record image into the item shape the
// DynamoDB service API and attributevalue work with.
func ConvertStreamImage(image map[string]types.AttributeValue) (map[string]ddbtypes.AttributeValue, error) {
	item := make(map[string]ddbtypes.AttributeValue, len(image))
	for k, v := range image {
		converted, err := convertAttributeValue(v)
		if err != nil {
			return nil, fmt.Errorf("error converting attribute %s: %w", k, err)
		}
		item[k] = converted
	}
	return item, nil
}

func convertAttributeValue(v types.AttributeValue) (ddbtypes.AttributeValue, error) {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return &ddbtypes.AttributeValueMemberS{Value: tv.Value}, nil
	case *types.AttributeValueMemberN:
		return &ddbtypes.AttributeValueMemberN{Value: tv.Value}, nil
	case *types.AttributeValueMemberB:
		return &ddbtypes.AttributeValueMemberB{Value: tv.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return &ddbtypes.AttributeValueMemberBOOL{Value: tv.Value}, nil
	case *types.AttributeValueMemberNULL:
		return &ddbtypes.AttributeValueMemberNULL{Value: tv.Value}, nil
	case *types.AttributeValueMemberSS:
		return &ddbtypes.AttributeValueMemberSS{Value: tv.Value}, nil
	case *types.AttributeValueMemberNS:
		return &ddbtypes.AttributeValueMemberNS{Value: tv.Value}, nil
	case *types.AttributeValueMemberBS:
		return &ddbtypes.AttributeValueMemberBS{Value: tv.Value}, nil
	case *types.AttributeValueMemberM:
		m, err := ConvertStreamImage(tv.Value)
		if err != nil {
			return nil, fmt.Errorf("error converting map attribute: %w", err)
		}
		return &ddbtypes.AttributeValueMemberM{Value: m}, nil
	case *types.AttributeValueMemberL:
		list := make([]ddbtypes.AttributeValue, len(tv.Value))
		for i, item := range tv.Value {
			converted, err := convertAttributeValue(item)
			if err != nil {
				return nil, fmt.Errorf("error converting list item at index %d: %w", i, err)
			}
			list[i] = converted
		}
		return &ddbtypes.AttributeValueMemberL{Value: list}, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", v)
	}
}
